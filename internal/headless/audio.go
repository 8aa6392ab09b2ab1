package headless

import "go.uber.org/zap"

// Audio plays every effect for a fixed duration of virtual time and tracks
// the background channel.
type Audio struct {
	clock    *Clock
	logger   *zap.Logger
	duration uint32

	effect    uint16
	effectEnd uint32
	effects   []uint16

	background uint16
	volume     uint16
}

// NewAudio creates an audio sink whose effects last effectMS.
func NewAudio(clock *Clock, effectMS uint32, logger *zap.Logger) *Audio {
	return &Audio{clock: clock, duration: effectMS, logger: logger}
}

func (a *Audio) PlayEffect(id uint16) {
	a.effect = id
	a.effectEnd = a.clock.Millis() + a.duration
	a.effects = append(a.effects, id)
	a.logger.Debug("effect started", zap.Uint16("sound", id))
}

func (a *Audio) IsEffectPlaying() bool {
	return a.effect != 0 && a.clock.Millis() < a.effectEnd
}

func (a *Audio) StopEffect() { a.effect = 0 }

func (a *Audio) PlayBackground(id, volume uint16) {
	a.background, a.volume = id, volume
}

func (a *Audio) ChangeBackgroundVolume(volume uint16) { a.volume = volume }

func (a *Audio) StopBackground() { a.background, a.volume = 0, 0 }

// Effects returns every effect played, in order.
func (a *Audio) Effects() []uint16 { return append([]uint16(nil), a.effects...) }

// Background returns the playing background sound and its volume; id is 0
// when the channel is silent.
func (a *Audio) Background() (id, volume uint16) { return a.background, a.volume }
