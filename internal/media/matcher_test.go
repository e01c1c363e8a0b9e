package media_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/answerdesk/answerdesk/internal/config"
	"github.com/answerdesk/answerdesk/internal/media"
	"github.com/answerdesk/answerdesk/internal/model"
)

func poolWith(items ...model.PoolItem) *model.MediaPool {
	pool := &model.MediaPool{}
	for _, item := range items {
		pool.Add(item.Ref, item.Context)
	}
	return pool
}

func imageItem(url, context string) model.PoolItem {
	return model.PoolItem{Ref: model.MediaRefFromURL(url, model.MediaKindImage), Context: context}
}

func newMatcher(threshold float64, maxImages int) *media.Matcher {
	return media.NewMatcher(config.MatcherConfig{
		ScoreThreshold: threshold,
		MaxImages:      maxImages,
	})
}

func TestMatchStepsBindsByContextOverlap(t *testing.T) {
	answer := "To fix the printer:\n" +
		"1. Open the printer settings menu\n" +
		"2. Click the restart button\n"
	pool := poolWith(
		imageItem("/media/settings.png", "open the printer settings menu from the control panel"),
		imageItem("/media/restart.png", "click the restart button to restart the spooler"),
	)

	bindings := newMatcher(0.3, 5).MatchSteps(answer, pool)
	require.Len(t, bindings, 2)
	require.Equal(t, 1, bindings[0].StepNumber)
	require.Equal(t, "/media/settings.png", bindings[0].Media.URL)
	require.Equal(t, 2, bindings[1].StepNumber)
	require.Equal(t, "/media/restart.png", bindings[1].Media.URL)
}

func TestMatchStepsConsumesImageOnce(t *testing.T) {
	answer := "1. Open the settings menu\n2. Open the settings menu again\n"
	pool := poolWith(imageItem("/media/settings.png", "open the settings menu"))

	bindings := newMatcher(0.3, 5).MatchSteps(answer, pool)
	require.Len(t, bindings, 1)
	require.Equal(t, 1, bindings[0].StepNumber)
}

func TestMatchStepsRespectsGlobalCap(t *testing.T) {
	answer := "1. Open the settings menu\n" +
		"2. Click the restart button\n" +
		"3. Select the update option\n"
	pool := poolWith(
		imageItem("/media/a.png", "open the settings menu"),
		imageItem("/media/b.png", "click the restart button"),
		imageItem("/media/c.png", "select the update option"),
	)

	bindings := newMatcher(0.3, 2).MatchSteps(answer, pool)
	require.Len(t, bindings, 2)
}

func TestMatchStepsNoForcedFalsePositive(t *testing.T) {
	// One low-value shared word must not clear the threshold.
	answer := "1. Check the cable\n2. Verify the network light on the front panel\n3. Reboot the router\n"
	pool := poolWith(imageItem("/media/unrelated.png", "billing overview light summary for march"))

	bindings := newMatcher(0.3, 5).MatchSteps(answer, pool)
	require.Empty(t, bindings)
}

func TestMatchStepsStepNumberBonus(t *testing.T) {
	answer := "1. Open the settings menu\n"
	pool := poolWith(
		imageItem("/media/plain.png", "something about settings"),
		imageItem("/media/numbered.png", "1. settings overview"),
	)

	bindings := newMatcher(0.1, 5).MatchSteps(answer, pool)
	require.Len(t, bindings, 1)
	require.Equal(t, "/media/numbered.png", bindings[0].Media.URL)
}

func TestMatchStepsIgnoresVideosAndPlainAnswers(t *testing.T) {
	pool := &model.MediaPool{}
	pool.Add(model.MediaRefFromURL("https://www.youtube.com/embed/x", model.MediaKindVideo), "video about settings")

	require.Empty(t, newMatcher(0.1, 5).MatchSteps("1. Open settings\n", pool))
	require.Empty(t, newMatcher(0.1, 5).MatchSteps("No numbered steps here at all.", pool))
}
