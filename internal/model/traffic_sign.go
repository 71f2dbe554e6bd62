package model

import "time"

// SignType enumerates traffic sign groups.
type SignType string

const (
	SignTypeProhibition SignType = "Prohibition"
	SignTypeWarning     SignType = "Warning"
	SignTypeMandatory   SignType = "Mandatory"
	SignTypeInformation SignType = "Information"
	SignTypeAdditional  SignType = "Additional"
)

var signTypeLabels = map[SignType]string{
	SignTypeProhibition: "Biển cấm",
	SignTypeWarning:     "Biển cảnh báo",
	SignTypeMandatory:   "Biển hiệu lệnh",
	SignTypeInformation: "Biển chỉ dẫn",
	SignTypeAdditional:  "Biển phụ",
}

// Localized returns the Vietnamese display name, or the raw value when unknown.
func (t SignType) Localized() string {
	if l, ok := signTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// TrafficSign is reference data for the road sign study section.
type TrafficSign struct {
	ID                   int64     `json:"signId"`
	Code                 string    `json:"signCode"`
	Name                 string    `json:"signName"`
	Description          *string   `json:"description,omitempty"`
	ImageURL             *string   `json:"imageUrl,omitempty"`
	SignType             SignType  `json:"signType"`
	SignTypeLocalized    string    `json:"signTypeLocalized"`
	CategoryID           *int64    `json:"categoryId,omitempty"`
	Meaning              *string   `json:"meaning,omitempty"`
	RelatedQuestionCount int       `json:"relatedQuestionCount"`
	IsActive             bool      `json:"isActive"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// TrafficSignRequest is the admin payload for creating or replacing a sign.
type TrafficSignRequest struct {
	Code                 string  `json:"signCode" binding:"required,max=20"`
	Name                 string  `json:"signName" binding:"required,max=200"`
	Description          *string `json:"description" binding:"omitempty,max=2000"`
	ImageURL             *string `json:"imageUrl" binding:"omitempty,url,max=500"`
	SignType             string  `json:"signType" binding:"required,oneof=Prohibition Warning Mandatory Information Additional"`
	CategoryID           *int64  `json:"categoryId" binding:"omitempty,min=1"`
	Meaning              *string `json:"meaning" binding:"omitempty,max=2000"`
	RelatedQuestionCount int     `json:"relatedQuestionCount" binding:"min=0"`
}
