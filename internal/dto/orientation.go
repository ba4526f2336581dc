package dto

import (
	"github.com/gip-inclusion/dora-api/internal/models"
)

// CreateOrientationRequest is the payload submitted by a prescriber.
type CreateOrientationRequest struct {
	PrescriberStructureSlug string `json:"prescriberStructure" form:"prescriber_structure" validate:"omitempty,max=100"`
	StructureSlug           string `json:"structure" form:"structure" validate:"required,max=100"`
	ServiceSlug             string `json:"service" form:"service" validate:"omitempty,max=100"`
	BeneficiaryFirstName    string `json:"beneficiaryFirstName" form:"beneficiary_first_name" validate:"required,max=140"`
	BeneficiaryLastName     string `json:"beneficiaryLastName" form:"beneficiary_last_name" validate:"required,max=140"`
	BeneficiaryEmail        string `json:"beneficiaryEmail" form:"beneficiary_email" validate:"omitempty,email,max=254"`
	BeneficiaryPhone        string `json:"beneficiaryPhone" form:"beneficiary_phone" validate:"omitempty,max=20"`
	ReferentFirstName       string `json:"referentFirstName" form:"referent_first_name" validate:"omitempty,max=140"`
	ReferentLastName        string `json:"referentLastName" form:"referent_last_name" validate:"omitempty,max=140"`
	ReferentEmail           string `json:"referentEmail" form:"referent_email" validate:"omitempty,email,max=254"`
	ReferentPhone           string `json:"referentPhone" form:"referent_phone" validate:"omitempty,max=20"`
	Situation               string `json:"situation" form:"situation"`
	Requirements            string `json:"requirements" form:"requirements"`
	OrientationReasons      string `json:"orientationReasons" form:"orientation_reasons"`
}

// ValidateOrientationRequest carries the structure's acceptance messages.
type ValidateOrientationRequest struct {
	Message            string `json:"message" form:"message"`
	BeneficiaryMessage string `json:"beneficiary_message" form:"beneficiary_message"`
}

// RejectOrientationRequest carries the rejection message and reason codes.
type RejectOrientationRequest struct {
	Message string   `json:"message" form:"message"`
	Reasons []string `json:"reasons" form:"reasons"`
}

// ContactBeneficiaryRequest relays a message to the beneficiary.
type ContactBeneficiaryRequest struct {
	Message      string `json:"message" form:"message"`
	CCPrescriber Truthy `json:"cc_prescriber" form:"cc_prescriber"`
	CCReferent   Truthy `json:"cc_referent" form:"cc_referent"`
}

// ContactPrescriberRequest relays a message to the prescriber.
type ContactPrescriberRequest struct {
	Message       string `json:"message" form:"message"`
	CCBeneficiary Truthy `json:"cc_beneficiary" form:"cc_beneficiary"`
	CCReferent    Truthy `json:"cc_referent" form:"cc_referent"`
}

// RejectionReasonList is the catalogue payload.
type RejectionReasonList []models.RejectionReason
