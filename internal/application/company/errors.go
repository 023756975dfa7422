package company

import "errors"

var ErrNotFound = errors.New("company not found")

// Validation messages.
const (
	MsgUKEstablishmentPrefix     = "This must be a valid UK establishment number, beginning with BR."
	MsgUKEstablishmentCharacters = "This field can only contain the letters A to Z and numbers (no symbols, punctuation or spaces)."
	MsgGHQNotGHQ                 = "Company to be linked as global headquarters must be a global headquarters."
	MsgGHQSelf                   = "Global headquarters cannot point to itself."
	MsgGHQHasSubsidiaries        = "Subsidiaries have to be unlinked before changing headquarter type."
	MsgSubsidiaryCannotBeGHQ     = "A company cannot both be and have a global headquarters."
	MsgUKEstablishmentNotInUK    = "A UK establishment (branch of non-UK company) must be in the UK."
	MsgDuplicateExportCountry    = "You cannot enter the same country in multiple fields."
	MsgBlank                     = "This field may not be blank."
)
