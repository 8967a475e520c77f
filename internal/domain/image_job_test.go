package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestImageJobs(t *testing.T) {
	t.Parallel()

	owner, topic := uuid.New(), uuid.New()
	prompt := ParseImagePrompt("Subject: a heart")

	withPrompt := &Card{ID: uuid.New(), OwnerID: owner, TopicID: topic, PostType: PostTypeImage, ImagePrompt: prompt}
	noPrompt := &Card{ID: uuid.New(), OwnerID: owner, TopicID: topic, PostType: PostTypeImage}
	quiz := &Card{ID: uuid.New(), OwnerID: owner, TopicID: topic, PostType: PostTypeQuiz, ImagePrompt: prompt}
	second := &Card{ID: uuid.New(), OwnerID: owner, TopicID: topic, PostType: PostTypeImage, ImagePrompt: prompt}

	jobs := ImageJobs([]*Card{withPrompt, noPrompt, quiz, second})
	assert.Equal(t, []ImageJob{
		{OwnerID: owner, TopicID: topic, CardID: withPrompt.ID},
		{OwnerID: owner, TopicID: topic, CardID: second.ID},
	}, jobs)

	assert.Empty(t, ImageJobs(nil))
}

func TestImageJob_ObjectKey(t *testing.T) {
	t.Parallel()

	job := ImageJob{
		OwnerID: uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		TopicID: uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		CardID:  uuid.MustParse("33333333-3333-3333-3333-333333333333"),
	}
	assert.Equal(t,
		"users/11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222/33333333-3333-3333-3333-333333333333.png",
		job.ObjectKey())
}
