package refdata

// TD area codes to geographical names, after Network Rail signalling area
// designations. Not exhaustive; unknown areas fall back to the bare code.
var tdAreaNames = map[string]string{
	// London and South East
	"AW": "Ashford West",
	"EK": "East Kent",
	"G1": "Clapham Junction",
	"G3": "Battersea",
	"SE": "South Eastern",
	"TH": "Thameslink",
	"VN": "Victoria",
	"WD": "Wimbledon",
	"WK": "Waterloo",

	// South
	"BH": "Brighton",
	"EH": "Eastleigh",
	"SN": "Southampton",

	// South West
	"EX": "Exeter",
	"NW": "Newton Abbot",
	"PZ": "Penzance",
	"RW": "Reading West",

	// Midlands
	"BM": "Birmingham",
	"CF": "Cardiff",
	"NR": "Nuneaton",
	"WV": "Wolverhampton",

	// North West
	"CH": "Chester",
	"CR": "Crewe",
	"LV": "Liverpool",
	"MC": "Manchester Central",
	"PG": "Preston",
	"WN": "Wigan",

	// North East
	"DN": "Doncaster",
	"HF": "Halifax",
	"HU": "Hull",
	"LD": "Leeds",
	"SK": "Sheffield",
	"YK": "York",

	// Scotland
	"ED": "Edinburgh",
	"GL": "Glasgow",
	"AB": "Aberdeen",
	"DU": "Dundee",

	// Wales
	"SW": "Swansea",
	"CY": "Cardiff Valleys",

	// East
	"CB": "Cambridge",
	"IP": "Ipswich",
	"NC": "Norwich",
	"PE": "Peterborough",
}

// TOC numeric codes to operating company names. Freight operators often use
// codes outside this table.
var tocNames = map[string]string{
	"20": "TransPennine Express",
	"21": "Greater Anglia",
	"22": "Grand Central",
	"23": "Northern Trains",
	"25": "Great Western Railway",
	"27": "CrossCountry",
	"28": "East Midlands Railway",
	"29": "West Midlands Trains",
	"30": "London Overground",
	"35": "Caledonian Sleeper",
	"55": "Hull Trains",
	"60": "ScotRail",
	"61": "London North Eastern Railway",
	"64": "Merseyrail",
	"65": "Avanti West Coast",
	"71": "Transport for Wales",
	"74": "Chiltern Railways",
	"79": "c2c",
	"80": "Southeastern",
	"84": "South Western Railway",
	"86": "Heathrow Express",
	"88": "Southern/Thameslink/Gatwick Express",
}

var directionNames = map[string]string{
	"U": "UP (towards London)",
	"D": "DOWN (away from London)",
	"":  "Not specified",
}

// Line indicators vary by location; descriptions are generic.
var lineNames = map[string]string{
	"F": "Fast line",
	"S": "Slow line",
	"M": "Main line",
	"R": "Relief line",
	"L": "Local line",
	"":  "Not specified",
}
