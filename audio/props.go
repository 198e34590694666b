package audio

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// Props stores device configuration that can be updated without locks. All properties
// should be registered before any reads take place.
type Props struct {
	properties map[string]*atomic.Value
	setters    map[string]setter
}

func NewProps() *Props {
	return &Props{
		properties: make(map[string]*atomic.Value),
		setters:    make(map[string]setter),
	}
}

// Set updates the property with value. The key has to be registered first using Register.
func (p *Props) Set(key string, value any) error {
	prop, ok := p.properties[key]
	if !ok {
		return fmt.Errorf("unknown property %s", key)
	}
	if err := p.setters[key](value, prop); err != nil {
		return fmt.Errorf("set property %s: %w", key, err)
	}
	return nil
}

func (p *Props) Get(key string) (any, error) {
	prop, ok := p.properties[key]
	if !ok {
		return nil, fmt.Errorf("unknown property %s", key)
	}
	return prop.Load(), nil
}

// Keys returns the registered property names in sorted order.
func (p *Props) Keys() []string {
	keys := make([]string, 0, len(p.properties))
	for k := range p.properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Register adds a new property.
func (p *Props) Register(key string, set setter, init any) (*atomic.Value, error) {
	if _, ok := p.properties[key]; ok {
		return nil, fmt.Errorf("property %s already registered", key)
	}
	var prop atomic.Value
	p.properties[key] = &prop
	p.setters[key] = set
	return &prop, set(init, &prop)
}

func (p *Props) MustRegister(key string, set setter, init any) *atomic.Value {
	prop, err := p.Register(key, set, init)
	if err != nil {
		panic(err)
	}
	return prop
}

type setter func(val any, dest *atomic.Value) error

var (
	setEnvTime      = setFloat64(0.0005, 15)
	setEnvLevel     = setFloat64(0.001, 1)
	setEnvSharpness = setFloat64(0, 100_000)
	setLevel        = setFloat64(-40, 10)
)

func setFloat64(min, max float64) setter {
	return func(v any, dest *atomic.Value) error {
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case int:
			f = float64(n)
		default:
			return fmt.Errorf("value is not a float64: %v", v)
		}
		if f < min || f > max {
			return fmt.Errorf("property value is not in valid range %v - %v: %v", min, max, f)
		}
		dest.Store(f)
		return nil
	}
}

func setInt(v any, dest *atomic.Value) error {
	switch n := v.(type) {
	case float64:
		dest.Store(int(n))
	case int:
		dest.Store(n)
	default:
		return fmt.Errorf("value is not an int: %v", v)
	}
	return nil
}

func setBool(v any, dest *atomic.Value) error {
	switch b := v.(type) {
	case bool:
		dest.Store(b)
	case string:
		switch b {
		case "on", "true", "yes":
			dest.Store(true)
		case "off", "false", "no":
			dest.Store(false)
		default:
			return fmt.Errorf("value is not a bool: %v", v)
		}
	case float64:
		dest.Store(b != 0)
	case int:
		dest.Store(b != 0)
	default:
		return fmt.Errorf("value is not a bool: %v", v)
	}
	return nil
}

const (
	propEnvAttack           = "env.attack"
	propEnvDecay            = "env.decay"
	propEnvSustain          = "env.sustain"
	propEnvRelease          = "env.release"
	propEnvLevel            = "env.level"
	propEnvAttackSharpness  = "env.attack.sharpness"
	propEnvDecaySharpness   = "env.decay.sharpness"
	propEnvReleaseSharpness = "env.release.sharpness"
	propEnvEnabled          = "env.enabled"
)

// envProps holds the envelope properties of a device, registered under a common
// key suffix (empty for device wide properties).
type envProps struct {
	attack, decay, sustain, release *atomic.Value
	level                           *atomic.Value
	attackSharpness                 *atomic.Value
	decaySharpness                  *atomic.Value
	releaseSharpness                *atomic.Value
	enabled                         *atomic.Value
}

// envDefaults are the initial property values for a device envelope.
type envDefaults struct {
	attack, decay, sustain, release float64
	level                           float64
	enabled                         bool
}

var defaultEnv = envDefaults{
	attack:  defaultAttack,
	decay:   defaultDecay,
	sustain: defaultSustain,
	release: defaultRelease,
	level:   defaultSustainLevel,
	enabled: true,
}

func registerEnvProps(props *Props, suffix string, d envDefaults) envProps {
	return envProps{
		attack:           props.MustRegister(propEnvAttack+suffix, setEnvTime, d.attack),
		decay:            props.MustRegister(propEnvDecay+suffix, setEnvTime, d.decay),
		sustain:          props.MustRegister(propEnvSustain+suffix, setEnvTime, d.sustain),
		release:          props.MustRegister(propEnvRelease+suffix, setEnvTime, d.release),
		level:            props.MustRegister(propEnvLevel+suffix, setEnvLevel, d.level),
		attackSharpness:  props.MustRegister(propEnvAttackSharpness+suffix, setEnvSharpness, float64(defaultAttackSharpness)),
		decaySharpness:   props.MustRegister(propEnvDecaySharpness+suffix, setEnvSharpness, defaultDecaySharpness),
		releaseSharpness: props.MustRegister(propEnvReleaseSharpness+suffix, setEnvSharpness, defaultReleaseSharpness),
		enabled:          props.MustRegister(propEnvEnabled+suffix, setBool, d.enabled),
	}
}

// load copies the current property values into env. It does not change the
// envelope's phase.
func (p envProps) load(env *Envelope) {
	env.SetAttack(p.attack.Load().(float64))
	env.SetDecay(p.decay.Load().(float64))
	env.SetSustain(p.sustain.Load().(float64))
	env.SetRelease(p.release.Load().(float64))
	env.SetSustainLevel(p.level.Load().(float64))
	env.SetAttackSharpness(p.attackSharpness.Load().(float64))
	env.SetDecaySharpness(p.decaySharpness.Load().(float64))
	env.SetReleaseSharpness(p.releaseSharpness.Load().(float64))
	env.SetEnabled(p.enabled.Load().(bool))
}
