package translator

import (
	"sort"
	"strings"

	"hue-bus-bridge/internal/domain/alias"
	"hue-bus-bridge/internal/domain/model"
)

const allTargets = "all"

// Strategy extracts the parameters of one op from a command body.
type Strategy interface {
	Build(b body) model.Mutation
}

// TargetIndex is the view of known routing keys used to resolve targets.
type TargetIndex interface {
	Lookup(key string) (model.CacheEntry, bool)
	LightKeys() []string
}

// Translator converts inbound bus commands into mutation requests.
type Translator struct {
	factory *Factory
	aliases *alias.Resolver
	index   TargetIndex
}

func NewTranslator(aliases *alias.Resolver, index TargetIndex) *Translator {
	if aliases == nil {
		aliases = alias.NewResolver(nil)
	}
	return &Translator{
		factory: NewFactory(),
		aliases: aliases,
		index:   index,
	}
}

// Translate returns ErrIgnoredBody for unhandled bodies and a *RejectedError
// for commands that cannot be turned into a mutation.
func (t *Translator) Translate(cmd model.InboundCommand) (*model.MutationRequest, error) {
	if !Accepts(cmd.BodyName) {
		return nil, ErrIgnoredBody
	}
	b := body(cmd.Body)

	n, err := normalize(b)
	if err != nil {
		return nil, err
	}

	mutation := n.preset
	if mutation == nil {
		s, ok := t.factory.GetStrategy(n.op)
		if !ok {
			return nil, reject("unsupported command")
		}
		mutation = s.Build(b)
	}

	var targets []model.Target
	if n.all {
		targets = t.resolveTargets([]string{allTargets})
	} else {
		targets = t.resolveTargets(strings.Split(b.str("device"), ","))
	}
	if len(targets) == 0 {
		return nil, reject("no targets")
	}

	return &model.MutationRequest{Targets: targets, Mutation: mutation}, nil
}

// resolveTargets maps tokens to known lights first, then groups. Ignored and
// unknown tokens are dropped.
func (t *Translator) resolveTargets(tokens []string) []model.Target {
	seen := make(map[string]model.Target)
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if strings.EqualFold(tok, allTargets) {
			for _, key := range t.index.LightKeys() {
				if e, ok := t.index.Lookup(key); ok {
					seen[key] = model.Target{Key: key, BridgeID: e.BridgeID}
				}
			}
			continue
		}

		key, ok := t.aliases.Key(tok)
		if !ok {
			continue
		}
		e, ok := t.index.Lookup(key)
		if !ok {
			continue
		}
		switch e.Kind {
		case model.DeviceKindLight:
			seen[key] = model.Target{Key: key, BridgeID: e.BridgeID}
		case model.DeviceKindGroup:
			seen[key] = model.Target{Key: key, BridgeID: e.BridgeID, IsGroup: true}
		}
	}

	out := make([]model.Target, 0, len(seen))
	for _, tgt := range seen {
		out = append(out, tgt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
