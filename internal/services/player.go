package services

import "github.com/legalclear/legalclear/internal/models"

// passthroughPlayer is the default engine: the clip reaches the browser
// through the speak response and clip URL, so starting playback is accepting
// the clip. The Player seam exists for embedding a local voice engine and
// for tests.
type passthroughPlayer struct{}

func NewPassthroughPlayer() Player { return passthroughPlayer{} }

func (passthroughPlayer) Play(models.AudioClip) error { return nil }
func (passthroughPlayer) Pause()                      {}
