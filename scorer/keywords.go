package scorer

// Default gazetteers driving the category sub-scores and classification
// tags. These are product-tuning parameters: callers can override any of
// them through ScorerConfig, the values here are the shipped baseline.

// KeywordSet buckets terms by signal strength. A high hit counts 1.0, a
// medium hit 0.5, a low hit 0.2 toward the category's raw score.
type KeywordSet struct {
	High   []string
	Medium []string
	Low    []string
}

var DefaultGeoKeywords = KeywordSet{
	High: []string{
		"india", "indian", "delhi", "kashmir", "ladakh", "arunachal", "sikkim",
		"doklam", "galwan", "pangong", "tawang", "lac", "loc",
		"pakistan", "china", "chinese", "pla",
		"indo-pacific", "indian ocean", "andaman", "nicobar",
		"bangladesh", "nepal", "sri lanka", "maldives", "bhutan",
		"quad", "brics", "sco",
	},
	Medium: []string{
		"asia", "asian", "south asia", "southeast asia", "east asia",
		"afghanistan", "myanmar", "tibet", "xinjiang", "taiwan",
		"japan", "australia", "usa", "america", "russia", "russian",
		"middle east", "iran", "saudi", "uae", "israel",
		"asean", "aukus", "ukraine", "north korea", "dprk",
	},
	Low: []string{
		"europe", "european", "africa", "african", "latin america",
		"nato", "eu", "un", "united nations",
	},
}

var DefaultMilitaryKeywords = KeywordSet{
	High: []string{
		"military", "army", "navy", "air force", "defence", "defense",
		"missile", "nuclear", "weapon", "fighter jet", "warship",
		"submarine", "aircraft carrier", "tank", "artillery",
		"border", "intrusion", "incursion", "clash", "skirmish",
		"war", "conflict", "attack", "strike", "bombing",
		"terrorist", "terrorism", "insurgent", "militant",
		"special forces", "commando", "intelligence", "espionage",
		"ceasefire", "violation", "firing", "shelling",
	},
	Medium: []string{
		"soldier", "troops", "battalion", "regiment", "division",
		"exercise", "drill", "deployment", "patrol",
		"security", "surveillance", "reconnaissance",
		"drone", "uav", "satellite", "radar",
		"arms", "ammunition", "procurement",
	},
}

var DefaultDiplomaticKeywords = KeywordSet{
	High: []string{
		"summit", "bilateral", "treaty", "agreement", "pact",
		"sanctions", "embargo", "diplomatic", "ambassador",
		"foreign minister", "state visit", "talks", "negotiation",
		"alliance", "partnership", "cooperation",
	},
	Medium: []string{
		"relations", "ties", "dialogue", "meeting", "visit",
		"statement", "declaration", "resolution", "vote",
	},
}

var DefaultEconomicKeywords = KeywordSet{
	High: []string{
		"trade war", "tariff", "sanctions", "embargo",
		"oil", "energy", "gas", "pipeline",
		"port", "infrastructure", "belt and road",
		"critical minerals", "semiconductors",
		"supply chain", "economic warfare",
	},
	Medium: []string{
		"trade", "export", "import", "investment", "economy",
		"gdp", "market", "currency", "debt",
	},
}

// Ordered tag tables: first matching entry wins, so put the more specific
// buckets before the catch-alls.

type tagEntry struct {
	Tag      string
	Keywords []string
}

var DefaultRegionTable = []tagEntry{
	{"South Asia", []string{"india", "pakistan", "bangladesh", "nepal", "sri lanka", "bhutan", "maldives", "kashmir", "ladakh"}},
	{"East Asia", []string{"china", "japan", "korea", "taiwan", "hong kong", "beijing", "tokyo", "seoul", "pyongyang"}},
	{"Indo-Pacific", []string{"indo-pacific", "quad", "aukus", "pacific", "asean", "south china sea", "andaman"}},
	{"Middle East", []string{"iran", "israel", "saudi", "uae", "iraq", "syria", "gaza", "yemen", "gulf"}},
	{"Europe", []string{"nato", "russia", "ukraine", "eu", "european", "moscow", "kyiv", "london", "paris", "berlin"}},
	{"Central Asia", []string{"afghanistan", "kazakhstan", "uzbekistan", "tajikistan", "turkmenistan"}},
	{"Africa", []string{"africa", "african", "egypt", "libya", "sudan", "ethiopia", "nigeria", "kenya"}},
	{"Americas", []string{"america", "usa", "washington", "pentagon", "canada", "mexico", "brazil"}},
}

var DefaultCountryTable = []tagEntry{
	{"India", []string{"india", "indian", "delhi"}},
	{"China", []string{"china", "chinese", "beijing", "pla"}},
	{"Pakistan", []string{"pakistan", "pakistani", "islamabad", "rawalpindi"}},
	{"Russia", []string{"russia", "russian", "moscow", "kremlin"}},
	{"USA", []string{"usa", "united states", "america", "washington", "pentagon"}},
	{"Ukraine", []string{"ukraine", "ukrainian", "kyiv"}},
	{"Taiwan", []string{"taiwan", "taiwanese", "taipei"}},
	{"Iran", []string{"iran", "iranian", "tehran"}},
	{"Israel", []string{"israel", "israeli", "tel aviv", "idf"}},
	{"North Korea", []string{"north korea", "dprk", "pyongyang"}},
	{"Japan", []string{"japan", "japanese", "tokyo"}},
}

var DefaultThemeTable = []tagEntry{
	{"Great Power Competition", []string{"great power", "superpower", "hegemony", "rivalry", "strategic competition"}},
	{"Border Security", []string{"border", "lac", "loc", "incursion", "infiltration", "territorial"}},
	{"Maritime Security", []string{"maritime", "navy", "naval", "ship", "submarine", "carrier", "south china sea", "indian ocean"}},
	{"Defense Technology", []string{"missile", "hypersonic", "drone", "uav", "fighter jet", "weapon"}},
	{"Nuclear Affairs", []string{"nuclear", "atomic", "warhead", "icbm", "ballistic", "nonproliferation"}},
	{"Terrorism", []string{"terror", "terrorist", "extremist", "militant"}},
	{"Cyber Security", []string{"cyber", "hacking", "malware", "ransomware"}},
	{"Space", []string{"satellite", "space", "orbit", "anti-satellite", "asat"}},
	{"Diplomacy", []string{"summit", "treaty", "agreement", "bilateral", "talks", "diplomatic"}},
	{"Economic Security", []string{"sanctions", "trade war", "tariff", "embargo", "economic warfare"}},
}

var DefaultDomainTable = []tagEntry{
	{"land", []string{"army", "ground", "tank", "artillery", "infantry", "border"}},
	{"maritime", []string{"navy", "naval", "ship", "submarine", "maritime", "fleet"}},
	{"air", []string{"air force", "fighter", "aircraft", "bomber", "airspace"}},
	{"cyber", []string{"cyber", "hacking", "digital", "network"}},
	{"space", []string{"satellite", "space", "orbit"}},
	{"nuclear", []string{"nuclear", "atomic", "warhead"}},
	{"diplomatic", []string{"diplomatic", "summit", "treaty", "ambassador"}},
}

// Organizations reported as entities of type "organization".
var DefaultOrganizations = []string{
	"NATO", "United Nations", "QUAD", "BRICS", "SCO", "ASEAN", "AUKUS",
	"European Union", "Pentagon", "IAEA", "IMF", "World Bank",
}

// Monitored theatres: articles whose country tag lands here get the
// priority flag.
var DefaultMonitoredCountries = []string{
	"India", "Pakistan", "China", "Bangladesh", "Nepal",
	"Sri Lanka", "Myanmar", "Afghanistan", "Maldives", "Bhutan",
}
