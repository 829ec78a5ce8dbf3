package signalling

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"filedrop/internal/config"
	"filedrop/pkg/utils"
)

// FirebaseClient stores signaling sessions in a Firebase Realtime Database.
type FirebaseClient struct {
	db  *db.Client
	ref *db.Ref
}

func NewFirebaseClient(ctx context.Context, cfg *config.FirebaseConfig) (*FirebaseClient, error) {
	opt := option.WithCredentialsFile(cfg.CredentialsPath)

	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: cfg.DatabaseURL}, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting database client: %w", err)
	}

	return &FirebaseClient{
		db:  client,
		ref: client.NewRef("drops"),
	}, nil
}

// Session represents one drop's signaling record. Vanilla ICE only: the
// offer and answer already carry their gathered candidates.
type Session struct {
	ID     string `json:"sessionId"`
	Offer  string `json:"offer"`
	Answer string `json:"answer"`
}

func (f *FirebaseClient) CreateSession(ctx context.Context, offer string) (string, error) {
	code, err := utils.GenerateCode(8)
	if err != nil {
		return "", fmt.Errorf("error generating session code: %w", err)
	}

	sessionRef := f.ref.Child(code)
	sessionData := map[string]any{
		"sessionId": code,
		"offer":     offer,
		"answer":    "",
	}
	if err := sessionRef.Set(ctx, sessionData); err != nil {
		return "", fmt.Errorf("error creating session: %w", err)
	}

	logrus.WithField("code", code).Debug("session created")
	return code, nil
}

func (f *FirebaseClient) GetOffer(ctx context.Context, sessionID string) (string, error) {
	var sessionData Session
	if err := f.ref.Child(sessionID).Get(ctx, &sessionData); err != nil {
		return "", fmt.Errorf("error fetching session %s: %w", sessionID, err)
	}

	if sessionData.ID == "" || sessionData.Offer == "" {
		return "", fmt.Errorf("session %s not found or has no offer", sessionID)
	}

	return sessionData.Offer, nil
}

func (f *FirebaseClient) UpdateAnswer(ctx context.Context, sessionID, answer string) error {
	var sessionData Session

	sessionRef := f.ref.Child(sessionID)
	if err := sessionRef.Get(ctx, &sessionData); err != nil {
		return fmt.Errorf("error checking session existence for %s: %w", sessionID, err)
	}
	if sessionData.ID == "" {
		return fmt.Errorf("session %s not found", sessionID)
	}

	updates := map[string]any{
		"answer": answer,
	}
	if err := sessionRef.Update(ctx, updates); err != nil {
		return fmt.Errorf("error updating answer for session %s: %w", sessionID, err)
	}
	return nil
}

// WaitForAnswer polls the session until the receiver has uploaded an answer.
func (f *FirebaseClient) WaitForAnswer(ctx context.Context, sessionID string) (string, error) {
	var initialCheck Session

	sessionRef := f.ref.Child(sessionID)
	if err := sessionRef.Get(ctx, &initialCheck); err != nil {
		return "", fmt.Errorf("error checking session existence for %s: %w", sessionID, err)
	}
	if initialCheck.ID == "" {
		return "", fmt.Errorf("session %s not found", sessionID)
	}

	logrus.Info("waiting for receiver to answer...")

	for i := range 24 {
		var sessionData struct {
			Answer string `json:"answer"`
		}
		if err := sessionRef.Get(ctx, &sessionData); err != nil {
			logrus.WithError(err).Warn("failed to poll session")
		} else if sessionData.Answer != "" {
			return sessionData.Answer, nil
		}

		if i < 23 {
			select {
			case <-time.After(time.Second * 5):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	if err := f.DeleteSession(ctx, sessionID); err != nil {
		return "", fmt.Errorf("error deleting session: %w", err)
	}

	return "", fmt.Errorf("timeout waiting for answer")
}

func (f *FirebaseClient) DeleteSession(ctx context.Context, sessionID string) error {
	var sessionData Session

	sessionRef := f.ref.Child(sessionID)
	if err := sessionRef.Get(ctx, &sessionData); err != nil {
		return fmt.Errorf("error checking session existence for %s: %w", sessionID, err)
	}
	if sessionData.ID == "" {
		// Nothing to clean up
		logrus.WithField("code", sessionID).Debug("session not found, skipping deletion")
		return nil
	}

	if err := sessionRef.Delete(ctx); err != nil {
		return fmt.Errorf("error deleting session %s: %w", sessionID, err)
	}
	return nil
}
