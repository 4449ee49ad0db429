package model

// Entity is the sealed sum type for every record shape that can consume a
// login credential. The credential generator matches exhaustively over the
// four variants; adding a consumer type means adding a variant here and a
// case there, checked at compile time.
type Entity interface {
	// UserType returns the credential type this entity maps to.
	UserType() UserType

	// SubjectRef returns the stable identifier linking a CredentialRecord
	// back to this entity. Unique within a UserType, not across types.
	SubjectRef() string

	// DisplayName returns the human-readable name stored on the record.
	DisplayName() string

	entity()
}

// Member is an ordinary member of the organization.
type Member struct {
	ID         string
	NationalID string // may arrive encrypted; decrypted by the entity repo
	Phone      string // may arrive encrypted; decrypted by the entity repo
	FullName   string
}

func (m Member) UserType() UserType   { return UserTypeMember }
func (m Member) SubjectRef() string   { return m.ID }
func (m Member) DisplayName() string  { return m.FullName }
func (Member) entity()                {}

// DistrictOfficial is the chairman of a district organization.
type DistrictOfficial struct {
	DistrictID    string
	DistrictName  string
	ChairmanName  string
	ChairmanPhone string // may arrive encrypted
}

func (d DistrictOfficial) UserType() UserType  { return UserTypeDistrictPresident }
func (d DistrictOfficial) SubjectRef() string  { return d.DistrictID }
func (d DistrictOfficial) DisplayName() string { return d.ChairmanName }
func (DistrictOfficial) entity()               {}

// TownOfficial is the chairman of a town organization.
type TownOfficial struct {
	TownID        string
	TownName      string
	ChairmanName  string
	ChairmanPhone string // may arrive encrypted
}

func (t TownOfficial) UserType() UserType  { return UserTypeTownPresident }
func (t TownOfficial) SubjectRef() string  { return t.TownID }
func (t TownOfficial) DisplayName() string { return t.ChairmanName }
func (TownOfficial) entity()               {}

// Observer is an election-day ballot box observer. Only chief observers are
// eligible for a credential; eligibility loss is handled by the local orphan
// cleanup, not by the generator.
type Observer struct {
	ID              string
	Name            string
	NationalID      string // may arrive encrypted
	BallotBoxID     string // empty when not linked to a ballot box
	BallotBoxNumber string
	IsChief         bool
}

func (o Observer) UserType() UserType  { return UserTypeObserver }
func (o Observer) SubjectRef() string  { return o.ID }
func (o Observer) DisplayName() string { return o.Name }
func (Observer) entity()               {}
