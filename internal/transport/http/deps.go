package http

import (
	"github.com/eloity/tiergate/internal/infrastructure/dynamo"
	jwtinfra "github.com/eloity/tiergate/internal/infrastructure/jwt"
	s3infra "github.com/eloity/tiergate/internal/infrastructure/s3"
	"github.com/eloity/tiergate/internal/infrastructure/smtp"
	"github.com/eloity/tiergate/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	ProfileRepo      *dynamo.TierProfileRepo
	GateRepo         *dynamo.FeatureGateRepo
	HistoryRepo      *dynamo.TierHistoryRepo
	VerificationRepo *dynamo.VerificationRepo
	TwoFactorRepo    *dynamo.TwoFactorRepo
	RewardRepo       *dynamo.RewardRepo
	DocumentStore    *s3infra.DocumentStore
	Mailer           smtp.Mailer
	SMSSender        sns.SMSSender
	JWTProvider      *jwtinfra.Provider
}
