// Package di contains dependency injection tokens for the history context.
package di

import (
	"github.com/fd1az/dex-arbitrage-scanner/business/history/app"
	"github.com/fd1az/dex-arbitrage-scanner/business/history/infra/s3archive"
	"github.com/fd1az/dex-arbitrage-scanner/internal/di"
)

// Public service tokens
var (
	Service = di.NewToken[*app.Service]("history.Service")
)

// Private dependency tokens
var (
	Store    = di.NewToken[app.Store]("history:store")
	Archiver = di.NewToken[*s3archive.Archiver]("history:archiver") // nil when archiving is off
)

func GetService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, Service)
}

func GetStore(c di.ServiceRegistry) app.Store {
	return di.GetToken(c, Store)
}

func GetArchiver(c di.ServiceRegistry) *s3archive.Archiver {
	return di.GetToken(c, Archiver)
}
