package ingredient

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Articles, prepositions, size and colour adjectives, small number words and
// "quanto basta" markers. Removing them lets different phrasings of the same
// ingredient share a name; the merge is best effort.
var stopwords = map[string]struct{}{
	"il": {}, "lo": {}, "la": {}, "i": {}, "gli": {}, "le": {}, "l": {},
	"un": {}, "uno": {}, "una": {}, "d": {},
	"di": {}, "da": {}, "del": {}, "dello": {}, "della": {}, "dei": {}, "degli": {}, "delle": {},
	"con": {}, "per": {}, "a": {}, "al": {}, "alla": {}, "allo": {}, "ai": {}, "in": {}, "e": {},
	"grande": {}, "grandi": {}, "piccolo": {}, "piccola": {}, "piccoli": {}, "piccole": {},
	"medio": {}, "media": {}, "medi": {}, "medie": {},
	"fresco": {}, "fresca": {}, "freschi": {}, "fresche": {},
	"rosso": {}, "rossa": {}, "rossi": {}, "rosse": {},
	"verde": {}, "verdi": {},
	"bianco": {}, "bianca": {}, "bianchi": {}, "bianche": {},
	"giallo": {}, "gialla": {}, "gialli": {}, "gialle": {},
	"nero": {}, "nera": {}, "neri": {}, "nere": {},
	"due": {}, "tre": {}, "quattro": {}, "cinque": {}, "mezzo": {}, "mezza": {},
	"qb": {},
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName lowercases name, strips diacritics and punctuation and
// drops stopwords. If every word is a stopword the cleaned text is kept.
func NormalizeName(name string) string {
	clean, _, err := transform.String(stripMarks, strings.ToLower(name))
	if err != nil {
		clean = strings.ToLower(name)
	}
	clean = strings.ReplaceAll(clean, ".", "")
	clean = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, clean)

	words := strings.Fields(clean)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if _, stop := stopwords[w]; !stop {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return strings.Join(words, " ")
	}
	return strings.Join(kept, " ")
}

type keyword struct {
	needle   string
	category Category
}

// Order matters: the first keyword contained in the name wins, so compound
// products ("passata", "cocco", "brodo") come before the generic words they
// contain and "peperon" comes before "pepe".
var keywords = []keyword{
	{"passata", Pantry},
	{"pelati", Pantry},
	{"concentrato", Pantry},
	{"cocco", Pantry},
	{"brodo", Pantry},
	{"dado", Pantry},
	{"arachid", Pantry},
	{"pangrattato", Pantry},

	{"pomodor", Produce},
	{"insalat", Produce},
	{"lattuga", Produce},
	{"rucola", Produce},
	{"spinac", Produce},
	{"carot", Produce},
	{"cipoll", Produce},
	{"scalogn", Produce},
	{"aglio", Produce},
	{"zucchin", Produce},
	{"zucca", Produce},
	{"melanzan", Produce},
	{"peperon", Produce},
	{"patat", Produce},
	{"broccol", Produce},
	{"cavol", Produce},
	{"carciof", Produce},
	{"asparag", Produce},
	{"fagiolin", Produce},
	{"fungh", Produce},
	{"porcini", Produce},
	{"sedano", Produce},
	{"finocchi", Produce},
	{"porro", Produce},
	{"porri", Produce},
	{"basilico", Produce},
	{"prezzemolo", Produce},
	{"rosmarino", Produce},
	{"salvia", Produce},
	{"limon", Produce},
	{"aranc", Produce},
	{"mela", Produce},
	{"mele", Produce},
	{"pera", Produce},
	{"pere", Produce},
	{"banan", Produce},
	{"frutta", Produce},
	{"verdur", Produce},

	{"pollo", MeatFish},
	{"tacchino", MeatFish},
	{"manzo", MeatFish},
	{"vitello", MeatFish},
	{"maiale", MeatFish},
	{"agnello", MeatFish},
	{"salsicc", MeatFish},
	{"macinat", MeatFish},
	{"prosciutto", MeatFish},
	{"pancetta", MeatFish},
	{"speck", MeatFish},
	{"bresaola", MeatFish},
	{"carne", MeatFish},
	{"salmone", MeatFish},
	{"tonno", MeatFish},
	{"merluzzo", MeatFish},
	{"baccala", MeatFish},
	{"orata", MeatFish},
	{"branzino", MeatFish},
	{"gamber", MeatFish},
	{"cozze", MeatFish},
	{"vongole", MeatFish},
	{"calamar", MeatFish},
	{"acciug", MeatFish},
	{"pesce", MeatFish},

	{"latte", Dairy},
	{"burro", Dairy},
	{"panna", Dairy},
	{"yogurt", Dairy},
	{"mozzarella", Dairy},
	{"parmigiano", Dairy},
	{"grana", Dairy},
	{"pecorino", Dairy},
	{"ricotta", Dairy},
	{"mascarpone", Dairy},
	{"stracchino", Dairy},
	{"gorgonzola", Dairy},
	{"scamorza", Dairy},
	{"formagg", Dairy},
	{"uova", Dairy},
	{"uovo", Dairy},

	{"pasta", Pantry},
	{"spaghetti", Pantry},
	{"penne", Pantry},
	{"riso", Pantry},
	{"farina", Pantry},
	{"pane", Pantry},
	{"lievito", Pantry},
	{"fagioli", Pantry},
	{"ceci", Pantry},
	{"lenticchie", Pantry},
	{"piselli", Pantry},
	{"legumi", Pantry},
	{"olio", Pantry},
	{"aceto", Pantry},
	{"sale", Pantry},
	{"pepe", Pantry},
	{"zucchero", Pantry},
	{"miele", Pantry},
	{"origano", Pantry},
	{"spezie", Pantry},
	{"caffe", Pantry},
	{"biscotti", Pantry},
}

// Categorize assigns a store section to a normalized ingredient name.
// Unmatched names fall into Other.
func Categorize(name string) Category {
	for _, k := range keywords {
		if strings.Contains(name, k.needle) {
			return k.category
		}
	}
	return Other
}

// PantryStaples are the ingredients most households already own. The set
// only affects how shopping lists are displayed.
var PantryStaples = []string{"sale", "pepe", "olio", "aceto", "zucchero"}

// IsPantryStaple reports whether any word of the normalized name is a staple.
func IsPantryStaple(name string) bool {
	for _, w := range strings.Fields(name) {
		for _, staple := range PantryStaples {
			if w == staple {
				return true
			}
		}
	}
	return false
}
