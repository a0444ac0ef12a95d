package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/acme/coldcall-agent/internal/domain"
)

type businessPayload struct {
	ID           string  `json:"id,omitempty"`
	Name         string  `json:"name"`
	Phone        string  `json:"phone"`
	Address      string  `json:"address,omitempty"`
	City         string  `json:"city,omitempty"`
	State        string  `json:"state,omitempty"`
	ZipCode      string  `json:"zip_code,omitempty"`
	Industry     string  `json:"industry,omitempty"`
	BusinessType string  `json:"business_type,omitempty"`
	Website      string  `json:"website,omitempty"`
	Email        string  `json:"email,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
	ReviewCount  int     `json:"review_count,omitempty"`
	Verified     bool    `json:"verified,omitempty"`
}

func (p businessPayload) toDomain() domain.LocalBusiness {
	return domain.LocalBusiness{
		ID:           p.ID,
		Name:         p.Name,
		Phone:        p.Phone,
		Address:      p.Address,
		City:         p.City,
		State:        p.State,
		ZipCode:      p.ZipCode,
		Industry:     p.Industry,
		BusinessType: p.BusinessType,
		Website:      p.Website,
		Email:        p.Email,
		Rating:       p.Rating,
		ReviewCount:  p.ReviewCount,
		Verified:     p.Verified,
	}
}

func toBusinessPayload(b domain.LocalBusiness) businessPayload {
	return businessPayload{
		ID:           b.ID,
		Name:         b.Name,
		Phone:        b.Phone,
		Address:      b.Address,
		City:         b.City,
		State:        b.State,
		ZipCode:      b.ZipCode,
		Industry:     b.Industry,
		BusinessType: b.BusinessType,
		Website:      b.Website,
		Email:        b.Email,
		Rating:       b.Rating,
		ReviewCount:  b.ReviewCount,
		Verified:     b.Verified,
	}
}

func toBusinessPayloads(in []domain.LocalBusiness) []businessPayload {
	out := make([]businessPayload, len(in))
	for i, b := range in {
		out[i] = toBusinessPayload(b)
	}
	return out
}

type turnPayload struct {
	Role      domain.Role `json:"role"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}

func toTurnPayloads(turns []domain.Turn) []turnPayload {
	out := make([]turnPayload, len(turns))
	for i, t := range turns {
		out[i] = turnPayload{Role: t.Role, Message: t.Message, Timestamp: t.Timestamp}
	}
	return out
}

type callRecordResponse struct {
	ID              uuid.UUID            `json:"id"`
	ProviderCallID  string               `json:"provider_call_id,omitempty"`
	CampaignID      *uuid.UUID           `json:"campaign_id,omitempty"`
	Business        businessPayload      `json:"business"`
	Status          domain.CallStatus    `json:"status"`
	Outcome         domain.Outcome       `json:"outcome,omitempty"`
	DurationSeconds float64              `json:"duration_seconds"`
	InterestLevel   domain.InterestLevel `json:"interest_level,omitempty"`
	Transcript      []turnPayload        `json:"transcript,omitempty"`
	StartedAt       time.Time            `json:"started_at"`
	EndedAt         *time.Time           `json:"ended_at,omitempty"`
}

func toCallRecordResponse(rec domain.CallRecord, withTranscript bool) callRecordResponse {
	resp := callRecordResponse{
		ID:              rec.ID,
		ProviderCallID:  rec.ProviderCallID,
		CampaignID:      rec.CampaignID,
		Business:        toBusinessPayload(rec.Business),
		Status:          rec.Status,
		Outcome:         rec.Outcome,
		DurationSeconds: rec.Duration.Seconds(),
		InterestLevel:   rec.InterestLevel,
		StartedAt:       rec.StartedAt,
		EndedAt:         rec.EndedAt,
	}
	if withTranscript {
		resp.Transcript = toTurnPayloads(rec.Transcript)
	}
	return resp
}
