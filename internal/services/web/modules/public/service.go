package public

import (
	"log"
	"net/mail"
	"slices"
	"strings"

	"github.com/casanorte/casanorte/internal/platform/phone"
)

// ProjectTypes lists the selectable project types on the contact form.
var ProjectTypes = []string{"interior_remodel", "exterior_construction", "full_project", "not_sure"}

// InvestmentRanges lists the selectable budget ranges on the contact form.
var InvestmentRanges = []string{"250k_500k", "500k_1m", "1m_plus"}

// Inquiry is a consultation request submitted from the contact page.
type Inquiry struct {
	FullName        string
	Email           string
	Phone           string
	ProjectType     string
	ProjectAddress  string
	InvestmentRange string
	Message         string
}

// FieldErrors maps form field names to localization keys.
type FieldErrors map[string]string

type service struct {
	logger *log.Logger
}

func newService(logger *log.Logger) service {
	if logger == nil {
		logger = log.Default()
	}
	return service{logger: logger}
}

func normalizeInquiry(in Inquiry) Inquiry {
	return Inquiry{
		FullName:        strings.TrimSpace(in.FullName),
		Email:           strings.TrimSpace(in.Email),
		Phone:           strings.TrimSpace(in.Phone),
		ProjectType:     strings.TrimSpace(in.ProjectType),
		ProjectAddress:  strings.TrimSpace(in.ProjectAddress),
		InvestmentRange: strings.TrimSpace(in.InvestmentRange),
		Message:         strings.TrimSpace(in.Message),
	}
}

func validateInquiry(in Inquiry) FieldErrors {
	errs := FieldErrors{}
	if in.FullName == "" {
		errs["fullName"] = "public.contact.error.name_required"
	}
	if in.Email == "" {
		errs["email"] = "public.contact.error.email_required"
	} else if _, err := mail.ParseAddress(in.Email); err != nil || !strings.Contains(in.Email, ".") {
		errs["email"] = "public.contact.error.email_invalid"
	}
	if in.Phone != "" {
		if _, err := phone.Normalize(in.Phone); err != nil {
			errs["phone"] = "public.contact.error.phone_invalid"
		}
	}
	if in.ProjectType != "" && !slices.Contains(ProjectTypes, in.ProjectType) {
		errs["projectType"] = "public.contact.error.project_type_invalid"
	}
	if in.InvestmentRange == "" {
		errs["investmentRange"] = "public.contact.error.investment_required"
	} else if !slices.Contains(InvestmentRanges, in.InvestmentRange) {
		errs["investmentRange"] = "public.contact.error.investment_invalid"
	}
	if in.Message == "" {
		errs["message"] = "public.contact.error.message_required"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// submitInquiry validates and records an inquiry. Inquiries are delivered
// through the service log until a CRM integration exists.
func (s service) submitInquiry(in Inquiry, requestID string) (Inquiry, FieldErrors) {
	in = normalizeInquiry(in)
	if errs := validateInquiry(in); errs != nil {
		return in, errs
	}
	s.logger.Printf("contact inquiry received request_id=%s email=%s project_type=%s investment_range=%s", requestID, in.Email, in.ProjectType, in.InvestmentRange)
	return in, nil
}
