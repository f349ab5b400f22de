package http

import (
	"github.com/hivedesk/api/internal/infrastructure/dynamo"
	s3infra "github.com/hivedesk/api/internal/infrastructure/s3"
	"github.com/hivedesk/api/internal/infrastructure/smtp"
	"github.com/hivedesk/api/internal/infrastructure/sns"
	"github.com/hivedesk/api/internal/infrastructure/token"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	AuthMethodRepo   *dynamo.AuthMethodRepo
	MagicLinkRepo    *dynamo.MagicLinkRepo
	SessionRepo      *dynamo.SessionRepo
	ProjectRepo      *dynamo.ProjectRepo
	TaskRepo         *dynamo.TaskRepo
	NoteRepo         *dynamo.NoteRepo
	FileRepo         *dynamo.FileRepo
	NotificationRepo *dynamo.NotificationRepo

	S3Store *s3infra.Store
	Mailer  smtp.Mailer
	// Events may be nil when no SNS topic is configured.
	Events sns.Publisher
	Issuer token.Issuer
}
