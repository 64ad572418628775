// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/fd1az/dex-arbitrage-scanner/business/arbitrage/app"
	"github.com/fd1az/dex-arbitrage-scanner/internal/di"
)

// Public service tokens
var (
	Orchestrator = di.NewToken[*app.Orchestrator]("arbitrage.Orchestrator")
)

// Private dependency tokens
var (
	Evaluator = di.NewToken[*app.Evaluator]("arbitrage:evaluator")
)

func GetOrchestrator(c di.ServiceRegistry) *app.Orchestrator {
	return di.GetToken(c, Orchestrator)
}

func GetEvaluator(c di.ServiceRegistry) *app.Evaluator {
	return di.GetToken(c, Evaluator)
}
