package domain

import "time"

// Document is a supporting document uploaded by an alumnus.
type Document struct {
	DocumentID string    `json:"id" dynamodbav:"document_id"`
	OwnerID    string    `json:"owner_id" dynamodbav:"owner_id"`
	Object     string    `json:"-" dynamodbav:"object"`
	Name       string    `json:"name" dynamodbav:"name"`
	Type       string    `json:"type" dynamodbav:"type"`
	Size       int64     `json:"size" dynamodbav:"size"`
	Hash       string    `json:"hash" dynamodbav:"hash"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
}

// Roles carried in bearer tokens.
const (
	RoleAdmin  = "admin"
	RoleAlumni = "alumni"
)
