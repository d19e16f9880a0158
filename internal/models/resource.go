// Package models defines the syncable workspace resources and the bookkeeping
// records the sync engine keeps about them.
package models

import (
	"fmt"
	"time"
)

// Kind is the union discriminator written to the "model" field of every
// resource file.
type Kind string

const (
	KindWorkspace        Kind = "workspace"
	KindEnvironment      Kind = "environment"
	KindFolder           Kind = "folder"
	KindHttpRequest      Kind = "http_request"
	KindGrpcRequest      Kind = "grpc_request"
	KindWebsocketRequest Kind = "websocket_request"
)

// AllKinds lists every resource kind in foreign-key dependency order.
// Parents always come before the kinds that reference them.
var AllKinds = []Kind{
	KindWorkspace,
	KindEnvironment,
	KindFolder,
	KindHttpRequest,
	KindGrpcRequest,
	KindWebsocketRequest,
}

// Rank returns the position of k in AllKinds, or len(AllKinds) for an unknown kind.
func (k Kind) Rank() int {
	for i, kind := range AllKinds {
		if kind == k {
			return i
		}
	}
	return len(AllKinds)
}

func (k Kind) Valid() bool {
	return k.Rank() < len(AllKinds)
}

func (k Kind) String() string {
	return string(k)
}

// Resource is the sealed union of syncable resources. Only the types in this
// package implement it.
type Resource interface {
	GetID() string
	GetWorkspaceID() string
	GetUpdatedAt() time.Time
	Kind() Kind
	base() *Base
}

// Base holds the fields shared by every resource.
type Base struct {
	Model     Kind      `json:"model" yaml:"model"`
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

func (b *Base) GetID() string           { return b.ID }
func (b *Base) GetUpdatedAt() time.Time { return b.UpdatedAt }
func (b *Base) base() *Base             { return b }

type Workspace struct {
	Base                        `yaml:",inline"`
	Name                        string `json:"name" yaml:"name"`
	Description                 string `json:"description" yaml:"description"`
	SettingValidateCertificates bool   `json:"settingValidateCertificates" yaml:"settingValidateCertificates"`
	SettingFollowRedirects      bool   `json:"settingFollowRedirects" yaml:"settingFollowRedirects"`
	SettingRequestTimeout       int    `json:"settingRequestTimeout" yaml:"settingRequestTimeout"`
}

func (w *Workspace) Kind() Kind             { return KindWorkspace }
func (w *Workspace) GetWorkspaceID() string { return w.ID }

type EnvironmentVariable struct {
	Name    string `json:"name" yaml:"name"`
	Value   string `json:"value" yaml:"value"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

type Environment struct {
	Base        `yaml:",inline"`
	WorkspaceID string                `json:"workspaceId" yaml:"workspaceId"`
	Name        string                `json:"name" yaml:"name"`
	Color       string                `json:"color,omitempty" yaml:"color,omitempty"`
	Private     bool                  `json:"private" yaml:"private"`
	Variables   []EnvironmentVariable `json:"variables" yaml:"variables"`
}

func (e *Environment) Kind() Kind             { return KindEnvironment }
func (e *Environment) GetWorkspaceID() string { return e.WorkspaceID }

type Folder struct {
	Base         `yaml:",inline"`
	WorkspaceID  string  `json:"workspaceId" yaml:"workspaceId"`
	FolderID     *string `json:"folderId" yaml:"folderId"`
	Name         string  `json:"name" yaml:"name"`
	Description  string  `json:"description" yaml:"description"`
	SortPriority float64 `json:"sortPriority" yaml:"sortPriority"`
}

func (f *Folder) Kind() Kind             { return KindFolder }
func (f *Folder) GetWorkspaceID() string { return f.WorkspaceID }

// Header is a name/value pair used for HTTP headers, URL parameters and gRPC metadata.
type Header struct {
	Name    string `json:"name" yaml:"name"`
	Value   string `json:"value" yaml:"value"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

type HttpRequest struct {
	Base               `yaml:",inline"`
	WorkspaceID        string         `json:"workspaceId" yaml:"workspaceId"`
	FolderID           *string        `json:"folderId" yaml:"folderId"`
	Name               string         `json:"name" yaml:"name"`
	Description        string         `json:"description" yaml:"description"`
	Method             string         `json:"method" yaml:"method"`
	URL                string         `json:"url" yaml:"url"`
	URLParameters      []Header       `json:"urlParameters" yaml:"urlParameters"`
	Headers            []Header       `json:"headers" yaml:"headers"`
	BodyType           string         `json:"bodyType,omitempty" yaml:"bodyType,omitempty"`
	Body               map[string]any `json:"body" yaml:"body"`
	AuthenticationType string         `json:"authenticationType,omitempty" yaml:"authenticationType,omitempty"`
	Authentication     map[string]any `json:"authentication" yaml:"authentication"`
	SortPriority       float64        `json:"sortPriority" yaml:"sortPriority"`
}

func (r *HttpRequest) Kind() Kind             { return KindHttpRequest }
func (r *HttpRequest) GetWorkspaceID() string { return r.WorkspaceID }

type GrpcRequest struct {
	Base               `yaml:",inline"`
	WorkspaceID        string         `json:"workspaceId" yaml:"workspaceId"`
	FolderID           *string        `json:"folderId" yaml:"folderId"`
	Name               string         `json:"name" yaml:"name"`
	Description        string         `json:"description" yaml:"description"`
	URL                string         `json:"url" yaml:"url"`
	Service            string         `json:"service,omitempty" yaml:"service,omitempty"`
	Method             string         `json:"method,omitempty" yaml:"method,omitempty"`
	Message            string         `json:"message" yaml:"message"`
	Metadata           []Header       `json:"metadata" yaml:"metadata"`
	AuthenticationType string         `json:"authenticationType,omitempty" yaml:"authenticationType,omitempty"`
	Authentication     map[string]any `json:"authentication" yaml:"authentication"`
	SortPriority       float64        `json:"sortPriority" yaml:"sortPriority"`
}

func (r *GrpcRequest) Kind() Kind             { return KindGrpcRequest }
func (r *GrpcRequest) GetWorkspaceID() string { return r.WorkspaceID }

type WebsocketRequest struct {
	Base               `yaml:",inline"`
	WorkspaceID        string         `json:"workspaceId" yaml:"workspaceId"`
	FolderID           *string        `json:"folderId" yaml:"folderId"`
	Name               string         `json:"name" yaml:"name"`
	Description        string         `json:"description" yaml:"description"`
	URL                string         `json:"url" yaml:"url"`
	URLParameters      []Header       `json:"urlParameters" yaml:"urlParameters"`
	Headers            []Header       `json:"headers" yaml:"headers"`
	Message            string         `json:"message" yaml:"message"`
	AuthenticationType string         `json:"authenticationType,omitempty" yaml:"authenticationType,omitempty"`
	Authentication     map[string]any `json:"authentication" yaml:"authentication"`
	SortPriority       float64        `json:"sortPriority" yaml:"sortPriority"`
}

func (r *WebsocketRequest) Kind() Kind             { return KindWebsocketRequest }
func (r *WebsocketRequest) GetWorkspaceID() string { return r.WorkspaceID }

// NewResource returns an empty resource of the given kind with its
// discriminator already set.
func NewResource(kind Kind) (Resource, error) {
	var r Resource
	switch kind {
	case KindWorkspace:
		r = &Workspace{}
	case KindEnvironment:
		r = &Environment{}
	case KindFolder:
		r = &Folder{}
	case KindHttpRequest:
		r = &HttpRequest{}
	case KindGrpcRequest:
		r = &GrpcRequest{}
	case KindWebsocketRequest:
		r = &WebsocketRequest{}
	default:
		return nil, fmt.Errorf("unknown resource model %q", kind)
	}
	r.base().Model = kind
	return r, nil
}

// ParentFolderID returns the folder a resource lives in, or "" when it sits
// at the workspace root or cannot live in a folder.
func ParentFolderID(r Resource) string {
	var id *string
	switch v := r.(type) {
	case *Folder:
		id = v.FolderID
	case *HttpRequest:
		id = v.FolderID
	case *GrpcRequest:
		id = v.FolderID
	case *WebsocketRequest:
		id = v.FolderID
	}
	if id == nil {
		return ""
	}
	return *id
}

// IsPrivate reports whether r must never be written to a sync directory.
func IsPrivate(r Resource) bool {
	env, ok := r.(*Environment)
	return ok && env.Private
}

// Touch sets the resource timestamps to now, filling CreatedAt on first use.
func Touch(r Resource, now time.Time) {
	b := r.base()
	now = now.UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// Normalize fills the discriminator, converts timestamps to UTC and replaces
// nil collections with empty ones so a resource encodes the same way in YAML
// and JSON no matter where it came from.
func Normalize(r Resource) {
	b := r.base()
	b.Model = r.Kind()
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()

	switch v := r.(type) {
	case *Environment:
		v.Variables = emptyIfNil(v.Variables)
	case *HttpRequest:
		v.URLParameters = emptyIfNil(v.URLParameters)
		v.Headers = emptyIfNil(v.Headers)
		v.Body = emptyMapIfNil(v.Body)
		v.Authentication = emptyMapIfNil(v.Authentication)
	case *GrpcRequest:
		v.Metadata = emptyIfNil(v.Metadata)
		v.Authentication = emptyMapIfNil(v.Authentication)
	case *WebsocketRequest:
		v.URLParameters = emptyIfNil(v.URLParameters)
		v.Headers = emptyIfNil(v.Headers)
		v.Authentication = emptyMapIfNil(v.Authentication)
	}
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func emptyMapIfNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// Describe renders a short human readable label such as "http_request rq_123".
func Describe(r Resource) string {
	if r == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %s", r.Kind(), r.GetID())
}

// BaseOf returns the shared fields of r for in-place updates.
func BaseOf(r Resource) *Base {
	return r.base()
}
