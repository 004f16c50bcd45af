// Package codes generates and parses the human-readable record codes used
// by docket.
//
// # Formats
//
//   - Case (IUC):      IUC-<type>-<year>-<seq:4>     e.g. IUC-D-2025-0001
//   - Petition (PQRS): PQRS-<year>-<seq:4>           e.g. PQRS-2025-0007
//   - Document (IUS):  IUS-<kind>-<year>-<case:4>-<n> e.g. IUS-F-2025-0001-2
//
// Case types are E (ethical) and D (disciplinary). Document kinds are
// F (ruling, the default) and A (order). The IUS case segment is the
// numeric suffix of the parent IUC; an unparsable parent degrades to 0000
// and the current year instead of failing.
//
// # Reservation
//
// Sequences are scoped by code prefix. Generator reserves the next value
// inside the caller's transaction using a row in code_sequences as the
// per-scope lock and high-water mark, then skips forward past any code that
// already exists (administrative overrides and renames). Nothing is cached
// between calls.
//
//	err := db.Transaction(func(tx *gorm.DB) error {
//	    code, err := gen.NextCaseCode(tx, codes.CaseTypeDisciplinary, 2025)
//	    if err != nil {
//	        return err
//	    }
//	    return (&models.Case{Code: code.String(), ...}).Create(tx)
//	})
package codes
