// Package logger はzapのロガーを作る。
package logger

import (
	"go.uber.org/zap"
)

// New は dev ならコンソール向け、それ以外はJSON
func New(goEnv string) (*zap.Logger, error) {
	if goEnv == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
