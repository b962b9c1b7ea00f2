package entities

import (
	"time"

	"prism.io/application/utils"
)

// VerificationAttempt is the persisted record of one finished liveness
// session: the closing verdict plus enough diagnostics for audit.
type VerificationAttempt struct {
	SessionID     string         `bson:"sessionID" json:"sessionID"`
	DeviceID      string         `bson:"deviceID" json:"deviceID"`
	IsHuman       bool           `bson:"isHuman" json:"isHuman"`
	Confidence    float64        `bson:"confidence" json:"confidence"`
	BPM           *int           `bson:"bpm" json:"bpm"`
	SignalQuality float64        `bson:"signalQuality" json:"signalQuality"`
	HRVScore      float64        `bson:"hrvScore" json:"hrvScore"`
	RPPGMethod    string         `bson:"rppgMethod" json:"rppgMethod"`
	State         string         `bson:"state" json:"state"`
	Details       map[string]any `bson:"details" json:"details"`

	ID            string     `bson:"_id" json:"id"`
	CreatedAt     time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time  `bson:"updatedAt" json:"updatedAt"`
	DeletedAt     *time.Time `bson:"deletedAt" json:"deletedAt"`
	DeletedReason *string    `bson:"deletedReason" json:"deletedReason"`
}

func (model VerificationAttempt) ParseModel() any {
	now := time.Now()
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
		if model.ID == "" {
			model.ID = utils.GenerateUULDString()
		}
	}
	model.UpdatedAt = now
	return &model
}
