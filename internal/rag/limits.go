package rag

// Limits holds the tunable windows used when building the search query and
// the history block. The augmenter window is shorter than the
// history window.
type Limits struct {
	// AugmentTurnWindow is how many trailing turns feed a vague query.
	AugmentTurnWindow int
	// VagueQueryMaxWords is the largest word count still considered vague.
	VagueQueryMaxWords int
	// HistoryLineWindow is how many trailing turns the prompt history keeps.
	HistoryLineWindow int
}

const (
	DefaultAugmentTurnWindow  = 4
	DefaultVagueQueryMaxWords = 5
	DefaultHistoryLineWindow  = 6
)

func DefaultLimits() Limits {
	return Limits{
		AugmentTurnWindow:  DefaultAugmentTurnWindow,
		VagueQueryMaxWords: DefaultVagueQueryMaxWords,
		HistoryLineWindow:  DefaultHistoryLineWindow,
	}
}

// withDefaults replaces non-positive windows with the defaults.
func (l Limits) withDefaults() Limits {
	if l.AugmentTurnWindow <= 0 {
		l.AugmentTurnWindow = DefaultAugmentTurnWindow
	}
	if l.VagueQueryMaxWords <= 0 {
		l.VagueQueryMaxWords = DefaultVagueQueryMaxWords
	}
	if l.HistoryLineWindow <= 0 {
		l.HistoryLineWindow = DefaultHistoryLineWindow
	}
	return l
}
