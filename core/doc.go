// Package core contains the custody domain model, collaborator contracts and
// the service facade that ties provisioning and disbursement together.
// Provisioning, policy and disbursement packages depend on core; core must
// not depend on them or on any platform specific adapter.
package core
