//go:build wireinject
// +build wireinject

package app

import (
	"github.com/amaumene/popcorn/internal/config"
	"github.com/google/wire"
	"github.com/sirupsen/logrus"
)

// InitializeApp wires every component from cfg
func InitializeApp(cfg *config.Config, logger *logrus.Logger) (*App, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
