package scriptsave

import "fmt"

// Pass distinguishes the two independent fallback passes made per slot.
type Pass uint8

const (
	PassConfigured Pass = iota + 1
	PassRunning
)

func (p Pass) String() string {
	switch p {
	case PassConfigured:
		return "configured"
	case PassRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Outcome classifies how a requested script was resolved.
type Outcome uint8

const (
	// OutcomeRandom: nothing specific was requested.
	OutcomeRandom Outcome = iota + 1
	// OutcomeExact: the requested script and version are installed.
	OutcomeExact
	// OutcomeLatest: the requested version is gone, the newest installed
	// version of the same script replaces it.
	OutcomeLatest
	// OutcomeUnavailable: no version of the requested script is installed.
	OutcomeUnavailable
	// OutcomePlaceholder: the savegame only held the placeholder script.
	OutcomePlaceholder
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRandom:
		return "random"
	case OutcomeExact:
		return "exact"
	case OutcomeLatest:
		return "latest"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomePlaceholder:
		return "placeholder"
	default:
		return "unknown"
	}
}

// FallbackRequest is the script a savegame asks for. AllowRandom lets an empty
// name or the random flag resolve to random assignment without counting as a
// substitution; running records carry no random flag and never allow it.
type FallbackRequest struct {
	Name        string
	Version     int
	Random      bool
	AllowRandom bool
	Pass        Pass
}

// Resolution is the outcome of ResolveScript. Situation and Consequence are
// only set when Substituted is true.
type Resolution struct {
	Requested      ScriptIdentity
	Identity       ScriptIdentity
	Outcome        Outcome
	Substituted    bool
	DataCompatible bool
	Situation      string
	Consequence    string
}

// ResolveScript picks the script to configure for req. It never fails: an
// unavailable script degrades to the latest installed version of the same
// name, then to random assignment. Only an exact match is data compatible.
func ResolveScript(catalog Catalog, req FallbackRequest) Resolution {
	res := Resolution{
		Requested: ScriptIdentity{Name: req.Name, Version: req.Version, IsRandom: req.Random},
	}

	if req.AllowRandom && (req.Name == "" || req.Random) {
		res.Identity = RandomIdentity()
		res.Outcome = OutcomeRandom
		return res
	}

	if catalog != nil && req.Name != "" {
		latest, hasLatest := catalog.Latest(req.Name)
		switch {
		case req.Version == VersionUnspecified && hasLatest:
			return exactResolution(res, req.Name, latest)
		case req.Version != VersionUnspecified && catalog.Has(req.Name, req.Version):
			return exactResolution(res, req.Name, req.Version)
		case hasLatest:
			res.Identity = ScriptIdentity{Name: req.Name, Version: latest}
			res.Outcome = OutcomeLatest
			res.Substituted = true
			res.Situation = missingSituation(req)
			res.Consequence = latestConsequence(req.Pass, latest)
			return res
		}
	}

	res.Identity = RandomIdentity()
	res.Substituted = true
	if isPlaceholder(req.Name) {
		res.Outcome = OutcomePlaceholder
		res.Situation, res.Consequence = placeholderMessages(req.Pass)
		return res
	}
	res.Outcome = OutcomeUnavailable
	res.Situation = missingSituation(req)
	res.Consequence = randomConsequence(req.Pass)
	return res
}

func exactResolution(res Resolution, name string, version int) Resolution {
	res.Identity = ScriptIdentity{Name: name, Version: version}
	res.Outcome = OutcomeExact
	res.DataCompatible = true
	return res
}

// isPlaceholder reports names that mean "no script was available at save
// time". An empty name only reaches here on the running pass.
func isPlaceholder(name string) bool {
	return name == DummyScriptName || name == ""
}

func missingSituation(req FallbackRequest) string {
	if req.Version == VersionUnspecified {
		return fmt.Sprintf("savegame references script %q, which is no longer available", req.Name)
	}
	return fmt.Sprintf("savegame references script %q version %d, which is no longer available", req.Name, req.Version)
}

func latestConsequence(pass Pass, latest int) string {
	if pass == PassRunning {
		return fmt.Sprintf("started the latest available version %d instead; its saved data is discarded as incompatible", latest)
	}
	return fmt.Sprintf("configured the latest available version %d instead", latest)
}

func randomConsequence(pass Pass) string {
	if pass == PassRunning {
		return "a random available script will be started in its place"
	}
	return "configuration switched to random assignment"
}

func placeholderMessages(pass Pass) (string, string) {
	if pass == PassRunning {
		return "savegame had no scripts available when it was saved",
			"a random available script will be started now"
	}
	return "savegame slot had no script available when it was saved",
		"configuration switched to random assignment"
}
