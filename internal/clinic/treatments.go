// Package clinic holds clinic-level configuration shared by every booking
// channel: the treatment catalog and the business-hours grid.
package clinic

import "strings"

// Treatment identifies a bookable procedure. The set is closed; the chat
// extractor and the web form must reference the identical values.
type Treatment string

const (
	TreatmentAvaliacao   Treatment = "avaliacao"
	TreatmentLimpeza     Treatment = "limpeza"
	TreatmentClareamento Treatment = "clareamento"
	TreatmentRestauracao Treatment = "restauracao"
	TreatmentCanal       Treatment = "canal"
	TreatmentOrtodontia  Treatment = "ortodontia"
)

// Treatments lists every bookable procedure in menu order.
var Treatments = []Treatment{
	TreatmentAvaliacao,
	TreatmentLimpeza,
	TreatmentClareamento,
	TreatmentRestauracao,
	TreatmentCanal,
	TreatmentOrtodontia,
}

// displayNames maps each treatment to its patient-facing pt-BR name.
var displayNames = map[Treatment]string{
	TreatmentAvaliacao:   "Avaliação inicial",
	TreatmentLimpeza:     "Limpeza e profilaxia",
	TreatmentClareamento: "Clareamento dental",
	TreatmentRestauracao: "Restauração",
	TreatmentCanal:       "Tratamento de canal",
	TreatmentOrtodontia:  "Consulta ortodôntica",
}

// synonyms lists normalized (lowercase, accent-stripped) tokens patients
// actually type, paired with the treatment they mean. Order matters:
// MatchTreatment takes the first token found, catalog order.
var synonyms = []struct {
	token     string
	treatment Treatment
}{
	{"avaliacao", TreatmentAvaliacao},
	{"avaliar", TreatmentAvaliacao},
	{"consulta", TreatmentAvaliacao},
	{"checkup", TreatmentAvaliacao},
	{"limpeza", TreatmentLimpeza},
	{"profilaxia", TreatmentLimpeza},
	{"limpar", TreatmentLimpeza},
	{"clareamento", TreatmentClareamento},
	{"clarear", TreatmentClareamento},
	{"branquear", TreatmentClareamento},
	{"restauracao", TreatmentRestauracao},
	{"restaurar", TreatmentRestauracao},
	{"obturacao", TreatmentRestauracao},
	{"carie", TreatmentRestauracao},
	{"canal", TreatmentCanal},
	{"endodontia", TreatmentCanal},
	{"ortodontia", TreatmentOrtodontia},
	{"aparelho", TreatmentOrtodontia},
	{"ortodontico", TreatmentOrtodontia},
}

// DisplayName returns the patient-facing name for a treatment.
func DisplayName(t Treatment) string {
	if name, ok := displayNames[t]; ok {
		return name
	}
	return string(t)
}

// ValidTreatment reports whether the raw value names a catalog treatment.
func ValidTreatment(raw string) bool {
	_, ok := displayNames[Treatment(raw)]
	return ok
}

// MatchTreatment scans free text for a treatment name or synonym and
// returns the first catalog match. Matching is accent and case insensitive.
func MatchTreatment(text string) (Treatment, bool) {
	normalized := Normalize(text)
	for _, s := range synonyms {
		if strings.Contains(normalized, s.token) {
			return s.treatment, true
		}
	}
	return "", false
}

// accentReplacer folds the accented characters that appear in pt-BR input.
var accentReplacer = strings.NewReplacer(
	"á", "a", "à", "a", "ã", "a", "â", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "õ", "o", "ô", "o",
	"ú", "u", "ü", "u",
	"ç", "c",
)

// Normalize lowercases text and strips pt-BR accents for matching.
func Normalize(text string) string {
	return accentReplacer.Replace(strings.ToLower(text))
}
