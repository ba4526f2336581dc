package models

import "time"

// OrientationStatus captures the orientation lifecycle states.
type OrientationStatus string

const (
	OrientationStatusPending  OrientationStatus = "PENDING"
	OrientationStatusAccepted OrientationStatus = "ACCEPTED"
	OrientationStatusRejected OrientationStatus = "REJECTED"
)

// Valid reports whether the status is one of the known states.
func (s OrientationStatus) Valid() bool {
	switch s {
	case OrientationStatusPending, OrientationStatusAccepted, OrientationStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s OrientationStatus) Terminal() bool {
	return s == OrientationStatusAccepted || s == OrientationStatusRejected
}

// Orientation is a referral from a prescriber to a structure on behalf of a beneficiary.
// QueryID is the shareable capability used in every public URL; ID never leaves the server.
type Orientation struct {
	ID                      string            `db:"id" json:"-"`
	QueryID                 string            `db:"query_id" json:"queryId"`
	PrescriberID            string            `db:"prescriber_id" json:"-"`
	PrescriberStructureSlug *string           `db:"prescriber_structure_slug" json:"prescriberStructureSlug,omitempty"`
	StructureSlug           string            `db:"structure_slug" json:"structureSlug"`
	ServiceSlug             *string           `db:"service_slug" json:"serviceSlug,omitempty"`
	BeneficiaryFirstName    string            `db:"beneficiary_first_name" json:"beneficiaryFirstName"`
	BeneficiaryLastName     string            `db:"beneficiary_last_name" json:"beneficiaryLastName"`
	BeneficiaryEmail        string            `db:"beneficiary_email" json:"beneficiaryEmail"`
	BeneficiaryPhone        string            `db:"beneficiary_phone" json:"beneficiaryPhone"`
	ReferentFirstName       string            `db:"referent_first_name" json:"referentFirstName"`
	ReferentLastName        string            `db:"referent_last_name" json:"referentLastName"`
	ReferentEmail           string            `db:"referent_email" json:"referentEmail"`
	ReferentPhone           string            `db:"referent_phone" json:"referentPhone"`
	Situation               string            `db:"situation" json:"situation"`
	Requirements            string            `db:"requirements" json:"requirements"`
	OrientationReasons      string            `db:"orientation_reasons" json:"orientationReasons"`
	Status                  OrientationStatus `db:"status" json:"status"`
	CreationDate            time.Time         `db:"creation_date" json:"creationDate"`
	ProcessingDate          *time.Time        `db:"processing_date" json:"processingDate"`
	RejectionReasons        []string          `db:"-" json:"rejectionReasons"`

	Prescriber *User      `db:"-" json:"prescriber,omitempty"`
	Structure  *Structure `db:"-" json:"structure,omitempty"`
	Service    *Service   `db:"-" json:"service,omitempty"`
}

// BeneficiaryFullName joins the beneficiary names.
func (o *Orientation) BeneficiaryFullName() string {
	return joinName(o.BeneficiaryFirstName, o.BeneficiaryLastName)
}

// ReferentFullName joins the referent names.
func (o *Orientation) ReferentFullName() string {
	return joinName(o.ReferentFirstName, o.ReferentLastName)
}

// PrescriberEmail returns the prescriber address when the prescriber is loaded.
func (o *Orientation) PrescriberEmail() string {
	if o.Prescriber == nil {
		return ""
	}
	return o.Prescriber.Email
}

// ContactRecipient names a party of an orientation reachable through the contact relay.
type ContactRecipient string

const (
	ContactRecipientPrescriber  ContactRecipient = "PRESCRIBER"
	ContactRecipientBeneficiary ContactRecipient = "BENEFICIARY"
	ContactRecipientReferent    ContactRecipient = "REFERENT"
)

// Valid reports whether the recipient is known.
func (r ContactRecipient) Valid() bool {
	switch r {
	case ContactRecipientPrescriber, ContactRecipientBeneficiary, ContactRecipientReferent:
		return true
	}
	return false
}

// SentContactEmail is one entry of the append-only contact relay log.
type SentContactEmail struct {
	ID            string             `db:"id" json:"id"`
	OrientationID string             `db:"orientation_id" json:"-"`
	Recipient     ContactRecipient   `db:"recipient" json:"recipient"`
	CarbonCopies  []ContactRecipient `db:"-" json:"carbonCopies"`
	DateSent      time.Time          `db:"date_sent" json:"dateSent"`
}

// RejectionReason is an entry of the reference catalogue of rejection reasons.
type RejectionReason struct {
	Value string `db:"value" json:"value"`
	Label string `db:"label" json:"label"`
}
