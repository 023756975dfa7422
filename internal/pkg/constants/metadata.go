package constants

import "github.com/google/uuid"

// Well-known reference data ids. These rows are loaded by fixtures and must not change.
var (
	CountryUnitedKingdom = uuid.MustParse("80756b9a-5d95-e211-a939-e4115bead28a")
	CountryUnitedStates  = uuid.MustParse("81756b9a-5d95-e211-a939-e4115bead28a")
	CountryCanada        = uuid.MustParse("5daf72a6-5d95-e211-a939-e4115bead28a")

	HeadquarterTypeUKHQ = uuid.MustParse("3e6debb4-1596-40c5-aa25-f00da0e05af9")
	HeadquarterTypeEHQ  = uuid.MustParse("eb59eaeb-eeb8-4f54-9506-a5e08773046b")
	HeadquarterTypeGHQ  = uuid.MustParse("43281c5e-92a4-4794-867b-b4d5f801e6f3")

	BusinessTypeUKEstablishment = uuid.MustParse("b0730fc6-fcce-4071-bdab-ba8de4f4fc98")
)
