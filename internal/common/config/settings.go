package config

import (
	"sync/atomic"

	"application-documents/internal/common/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type documentValues struct {
	supportEmail string
	signature    string
	taxRate      float64
}

// Settings exposes the document values that may change while the process
// runs. Every accessor returns the value current at the time of the call.
type Settings struct {
	v       *viper.Viper
	current atomic.Pointer[documentValues]
}

// NewSettings reads document values from v. Pass viper.GetViper() after Load.
func NewSettings(v *viper.Viper) *Settings {
	s := &Settings{v: v}
	s.Reload()
	return s
}

// Reload re-reads the document values from the underlying viper instance.
func (s *Settings) Reload() {
	s.current.Store(&documentValues{
		supportEmail: s.v.GetString("document.support_email"),
		signature:    s.v.GetString("document.signature"),
		taxRate:      s.v.GetFloat64("document.tax_rate"),
	})
}

// Watch reloads the values whenever the config file changes on disk.
func (s *Settings) Watch(log logger.Logger) {
	s.v.OnConfigChange(func(e fsnotify.Event) {
		s.Reload()
		log.Info("document settings reloaded", map[string]interface{}{
			"file":    e.Name,
			"taxRate": s.TaxRate(),
		})
	})
	s.v.WatchConfig()
}

func (s *Settings) SupportEmail() string {
	return s.current.Load().supportEmail
}

func (s *Settings) Signature() string {
	return s.current.Load().signature
}

func (s *Settings) TaxRate() float64 {
	return s.current.Load().taxRate
}
