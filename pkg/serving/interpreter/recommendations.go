package interpreter

var EctopicRecommendations = Recommendations{
	High: []string{
		"Immediate gynecological consultation required",
		"Emergency department evaluation recommended",
		"Serial hCG monitoring every 12-24 hours",
		"Urgent transvaginal ultrasound examination",
		"Consider diagnostic laparoscopy if clinically indicated",
		"Patient requires immediate medical attention",
	},
	Moderate: []string{
		"Gynecological consultation within 24-48 hours",
		"Serial hCG monitoring every 48 hours",
		"Transvaginal ultrasound examination",
		"Close clinical monitoring required",
		"Patient education on warning signs",
		"Follow-up appointment scheduled",
	},
	Low: []string{
		"Routine obstetric follow-up appropriate",
		"Standard prenatal care monitoring",
		"Patient education on pregnancy symptoms",
		"Follow-up as clinically indicated",
		"Monitor for any concerning symptoms",
	},
}

var MolarRecommendations = Recommendations{
	High: []string{
		"URGENT: Immediate obstetric consultation required",
		"Emergency referral to gynecologic oncology",
		"Serial hCG monitoring every 24-48 hours",
		"Comprehensive ultrasound examination",
		"Prepare for possible evacuation procedure",
		"Patient requires immediate specialized care",
		"Baseline chest X-ray and laboratory workup",
	},
	Moderate: []string{
		"Obstetric consultation within 24 hours",
		"Serial hCG monitoring every 48-72 hours",
		"Detailed ultrasound examination required",
		"Consider tissue sampling if indicated",
		"Close follow-up until hCG normalizes",
		"Patient education on warning signs",
		"Monitor for complications",
	},
	Low: []string{
		"Routine obstetric follow-up appropriate",
		"Standard prenatal monitoring",
		"Follow-up hCG as clinically indicated",
		"Patient education on pregnancy symptoms",
		"Monitor for any concerning changes",
	},
}
