package codes

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/procuraduria/docket/pkg/errs"
	"github.com/procuraduria/docket/pkg/models"
)

const (
	// MinSequence and MaxSequence bound a 4-digit sequence.
	MinSequence = 1
	MaxSequence = 9999

	caseCodePrefix     = "IUC"
	petitionCodePrefix = "PQRS"
	documentCodePrefix = "IUS"

	unknownCaseSuffix = "0000"
)

// CaseType is the single-letter case type used in IUC codes.
type CaseType string

const (
	CaseTypeEthical      CaseType = "E"
	CaseTypeDisciplinary CaseType = "D"
)

// ParseCaseType accepts the letter or the English or Spanish name.
func ParseCaseType(s string) (CaseType, error) {
	switch foldAccents(strings.ToUpper(strings.TrimSpace(s))) {
	case "E", "ETHICAL", "ETICO":
		return CaseTypeEthical, nil
	case "D", "DISCIPLINARY", "DISCIPLINARIO":
		return CaseTypeDisciplinary, nil
	}
	return "", errs.Validation("parse case type", "invalid case type %q, use E (ethical) or D (disciplinary)", s)
}

// Name returns the type name persisted with the case.
func (t CaseType) Name() string {
	if t == CaseTypeEthical {
		return models.CaseTypeEthical
	}
	return models.CaseTypeDisciplinary
}

// CaseCode is a parsed IUC code.
type CaseCode struct {
	Type CaseType
	Year int
	Seq  int
}

func (c CaseCode) String() string {
	return CasePrefix(c.Type, c.Year) + Pad4(c.Seq)
}

// CasePrefix returns the sequence scope for a case type and year.
func CasePrefix(t CaseType, year int) string {
	return fmt.Sprintf("%s-%s-%d-", caseCodePrefix, t, year)
}

// ParseCaseCode parses a well-formed IUC code.
func ParseCaseCode(s string) (CaseCode, error) {
	code := NormalizeCode(s)
	parts := strings.Split(code, "-")
	if len(parts) != 4 || parts[0] != caseCodePrefix {
		return CaseCode{}, errs.Validation("parse case code", "malformed case code %q", s)
	}
	t, err := ParseCaseType(parts[1])
	if err != nil || len(parts[1]) != 1 {
		return CaseCode{}, errs.Validation("parse case code", "malformed case code %q", s)
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil || !isYear(parts[2]) {
		return CaseCode{}, errs.Validation("parse case code", "malformed year in case code %q", s)
	}
	seq, err := strconv.Atoi(parts[3])
	if err != nil || seq < 0 || seq > MaxSequence {
		return CaseCode{}, errs.Validation("parse case code", "malformed sequence in case code %q", s)
	}
	return CaseCode{Type: t, Year: year, Seq: seq}, nil
}

// PetitionCode is a parsed PQRS radicado.
type PetitionCode struct {
	Year int
	Seq  int
}

func (p PetitionCode) String() string {
	return PetitionPrefix(p.Year) + Pad4(p.Seq)
}

// PetitionPrefix returns the sequence scope for petitions filed in year.
func PetitionPrefix(year int) string {
	return fmt.Sprintf("%s-%d-", petitionCodePrefix, year)
}

// RulingKind is the single-letter document kind used in IUS codes.
type RulingKind string

const (
	RulingKindRuling RulingKind = "F"
	RulingKindOrder  RulingKind = "A"
)

// ParseRulingKind maps input to a kind. Anything unrecognized is a ruling.
func ParseRulingKind(s string) RulingKind {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A", "AUTO", "ORDER":
		return RulingKindOrder
	default:
		return RulingKindRuling
	}
}

// DocumentPrefix builds the IUS scope "IUS-<kind>-<year>-<caseSuffix>-" for
// a parent case code. It never fails: the case suffix falls back to 0000
// and the year to now's year.
func DocumentPrefix(parentCaseCode string, kind RulingKind, now time.Time) string {
	if kind != RulingKindOrder {
		kind = RulingKindRuling
	}

	parts := strings.Split(NormalizeCode(parentCaseCode), "-")

	year := now.Year()
	for _, p := range parts {
		if isYear(p) {
			year, _ = strconv.Atoi(p)
			break
		}
	}

	suffix := unknownCaseSuffix
	if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil && n >= 0 {
		suffix = Pad4(n)
	}

	return fmt.Sprintf("%s-%s-%d-%s-", documentCodePrefix, kind, year, suffix)
}

// DocumentCode joins an IUS prefix and its counter.
func DocumentCode(prefix string, n int) string {
	return prefix + strconv.Itoa(n)
}

// ClampSequence bounds an administrative sequence override to [1, 9999].
func ClampSequence(n int) int {
	switch {
	case n < MinSequence:
		return MinSequence
	case n > MaxSequence:
		return MaxSequence
	}
	return n
}

// RenameCode replaces the last dash segment of code with newSuffix padded to
// four digits.
func RenameCode(code string, newSuffix int) (string, error) {
	if newSuffix < 0 || newSuffix > MaxSequence {
		return "", errs.Validation("rename code", "suffix %d out of range [0, %d]", newSuffix, MaxSequence)
	}
	parts := strings.Split(NormalizeCode(code), "-")
	if len(parts) < 2 {
		return "", errs.Validation("rename code", "malformed code %q", code)
	}
	parts[len(parts)-1] = Pad4(newSuffix)
	return strings.Join(parts, "-"), nil
}

// NormalizeCode trims and upper-cases a user supplied code.
func NormalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Pad4 zero-pads n to four digits.
func Pad4(n int) string {
	return fmt.Sprintf("%04d", n)
}

func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var accentFolder = strings.NewReplacer("Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U")

func foldAccents(s string) string {
	return accentFolder.Replace(s)
}
