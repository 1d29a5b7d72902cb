package sqlstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-custody/core"
)

type snapshotRecord struct {
	bun.BaseModel `bun:"table:custody_snapshots,alias:cs"`

	ID                 string                    `bun:"id,pk"`
	OriginatorID       string                    `bun:"originator_id,notnull"`
	SubOrganizationID  string                    `bun:"sub_organization_id,notnull"`
	PlatformConfigHash string                    `bun:"platform_config_hash,notnull"`
	Snapshot           core.ProvisioningSnapshot `bun:"snapshot,type:jsonb,notnull"`
	ResolvedTemplates  map[string]string         `bun:"resolved_templates,type:jsonb,notnull"`
	SealedCredentials  []byte                    `bun:"sealed_credentials,nullzero"`
	EncryptionKeyID    string                    `bun:"encryption_key_id,notnull"`
	EncryptionVersion  int                       `bun:"encryption_version,notnull"`
	CreatedAt          time.Time                 `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt          time.Time                 `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
