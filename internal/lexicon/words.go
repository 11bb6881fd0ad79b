package lexicon

var positiveWords = []string{
	"good", "great", "excellent", "amazing", "wonderful", "fantastic",
	"best", "love", "loved", "recommend", "recommended", "reliable",
	"easy", "fast", "efficient", "professional", "quality", "impressive",
	"outstanding", "superb", "perfect", "brilliant", "top", "leading",
	"innovative", "powerful", "useful", "helpful", "effective", "affordable",
}

var negativeWords = []string{
	"bad", "terrible", "awful", "horrible", "poor", "worst",
	"hate", "disappointing", "disappointed", "unreliable", "expensive",
	"slow", "difficult", "complicated", "frustrating", "annoying",
	"confusing", "buggy", "broken", "useless", "overpriced", "lacking",
	"mediocre", "subpar", "avoid", "scam", "waste", "problems", "issues",
}

var negationWords = []string{
	"not", "no", "never", "n't", "neither", "nobody", "nothing",
}

var defaultAspects = []Aspect{
	{
		Name: AspectPricing,
		Keywords: []string{
			"price", "prices", "pricing", "priced", "cost", "costs", "costly", "expensive",
			"cheap", "cheaper", "affordable", "subscription", "plan", "plans", "fee", "fees",
			"free tier", "budget", "value", "overpriced", "per month", "per user",
		},
		Positive: []string{
			"affordable", "cheap", "cheaper", "inexpensive", "reasonable", "reasonably priced",
			"good value", "great value", "free tier", "competitive pricing", "budget-friendly",
		},
		Negative: []string{
			"expensive", "overpriced", "costly", "pricey", "hidden fees", "steep price",
			"price increase", "too much",
		},
	},
	{
		Name: AspectFeatures,
		Keywords: []string{
			"feature", "features", "functionality", "capability", "capabilities", "tools",
			"toolset", "customization", "customizable", "options", "automation", "analytics",
			"dashboard", "reporting",
		},
		Positive: []string{
			"powerful", "robust", "comprehensive", "flexible", "feature-rich", "rich",
			"advanced", "versatile", "extensive",
		},
		Negative: []string{
			"limited", "lacking", "basic", "missing", "bare-bones", "outdated",
		},
	},
	{
		Name: AspectSupport,
		Keywords: []string{
			"support", "customer service", "customer support", "help desk", "helpdesk",
			"documentation", "docs", "onboarding", "community", "account manager",
		},
		Positive: []string{
			"responsive", "helpful", "excellent support", "great support", "quick response",
			"knowledgeable", "24/7", "friendly",
		},
		Negative: []string{
			"unresponsive", "slow response", "poor support", "lacking", "hard to reach",
			"no support", "unhelpful",
		},
	},
	{
		Name: AspectEaseOfUse,
		Keywords: []string{
			"easy", "ease of use", "intuitive", "user-friendly", "user friendly",
			"learning curve", "interface", "ui", "ux", "usability", "setup", "simple",
			"onboard",
		},
		Positive: []string{
			"easy", "intuitive", "simple", "user-friendly", "user friendly",
			"straightforward", "clean", "easy to use",
		},
		Negative: []string{
			"difficult", "complicated", "confusing", "steep learning curve", "clunky",
			"cumbersome", "complex", "hard to use",
		},
	},
	{
		Name: AspectPerformance,
		Keywords: []string{
			"performance", "fast", "faster", "slow", "speed", "reliable", "reliability",
			"uptime", "scalable", "scalability", "latency", "load time", "crash", "crashes",
		},
		Positive: []string{
			"fast", "faster", "reliable", "scalable", "stable", "efficient", "snappy",
			"high uptime", "lightning",
		},
		Negative: []string{
			"slow", "laggy", "unreliable", "crashes", "downtime", "outage", "outages",
			"sluggish", "buggy",
		},
	},
	{
		Name: AspectIntegration,
		Keywords: []string{
			"integration", "integrations", "integrates", "integrate", "api", "apis",
			"plugin", "plugins", "connector", "connectors", "ecosystem", "compatible",
			"compatibility", "webhook", "webhooks",
		},
		Positive: []string{
			"seamless", "seamlessly", "native", "extensive", "wide range", "out of the box",
			"well-documented", "integrates well",
		},
		Negative: []string{
			"limited integrations", "limited", "difficult to integrate", "clunky",
			"missing", "incompatible",
		},
	},
	{
		Name: AspectSecurity,
		Keywords: []string{
			"security", "secure", "encryption", "encrypted", "compliance", "compliant",
			"gdpr", "hipaa", "soc 2", "soc2", "privacy", "sso", "permissions", "breach",
			"vulnerability",
		},
		Positive: []string{
			"secure", "compliant", "encrypted", "end-to-end", "robust security",
			"enterprise-grade", "certified",
		},
		Negative: []string{
			"vulnerable", "vulnerability", "breach", "insecure", "risk", "risky", "leak",
			"exposed",
		},
	},
}
