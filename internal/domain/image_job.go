package domain

import "github.com/google/uuid"

// ImageJob asks the renderer to synthesize one card's image.
type ImageJob struct {
	OwnerID uuid.UUID `json:"owner_id"`
	TopicID uuid.UUID `json:"topic_id"`
	CardID  uuid.UUID `json:"card_id"`
}

// ImageJobs returns one job per image card that carries a prompt, in card
// order.
func ImageJobs(cards []*Card) []ImageJob {
	var jobs []ImageJob
	for _, c := range cards {
		if !c.IsImage() || c.ImagePrompt == nil {
			continue
		}
		jobs = append(jobs, ImageJob{OwnerID: c.OwnerID, TopicID: c.TopicID, CardID: c.ID})
	}
	return jobs
}

// ObjectKey returns the blob key the rendered image is stored under.
func (j ImageJob) ObjectKey() string {
	return "users/" + j.OwnerID.String() + "/" + j.TopicID.String() + "/" + j.CardID.String() + ".png"
}
