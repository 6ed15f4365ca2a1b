// internal/gateway/client.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"notification-dispatcher/internal/common/auth"
	"notification-dispatcher/internal/common/errors"
	httpclient "notification-dispatcher/internal/common/http"
	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/models"
)

const classAndStudentQuery = `query ClassAndStudent($classId: ID!) {
  class(id: $classId) {
    id
    className
    student {
      id
      email
      firstName
      middleName
      lastName
    }
  }
}`

const classAndTutorQuery = `query ClassAndTutor($classId: ID!, $tutorId: ID!) {
  class(id: $classId) {
    id
    className
  }
  tutor(id: $tutorId) {
    id
    email
    firstName
    middleName
    lastName
  }
}`

// Client fetches directory records through the API gateway's GraphQL
// endpoint.
type Client struct {
	url        string
	httpClient *httpclient.Client
	logger     logger.Logger
}

// NewClient creates a gateway client. The token provider is optional;
// without one requests go out unauthenticated.
func NewClient(url string, timeout time.Duration, tokenProvider auth.TokenProvider, log logger.Logger) *Client {
	return &Client{
		url:        url,
		httpClient: httpclient.NewClient(timeout, tokenProvider),
		logger:     log,
	}
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// FetchClassAndStudent loads a class together with its owning student.
func (c *Client) FetchClassAndStudent(ctx context.Context, classID string) (*models.ClassWithStudent, error) {
	var data struct {
		Class *struct {
			models.ClassRecord
			Student *models.PersonRecord `json:"student"`
		} `json:"class"`
	}

	if err := c.query(ctx, classAndStudentQuery, map[string]interface{}{"classId": classID}, &data); err != nil {
		return nil, err
	}

	if data.Class == nil || data.Class.Student == nil {
		return nil, errors.NewGatewayNotFoundError(fmt.Sprintf("class %s or its student", classID))
	}

	return &models.ClassWithStudent{
		Class:   data.Class.ClassRecord,
		Student: *data.Class.Student,
	}, nil
}

// FetchClassAndTutor loads a class together with a tutor record.
func (c *Client) FetchClassAndTutor(ctx context.Context, classID, tutorID string) (*models.ClassWithTutor, error) {
	var data struct {
		Class *models.ClassRecord  `json:"class"`
		Tutor *models.PersonRecord `json:"tutor"`
	}

	vars := map[string]interface{}{"classId": classID, "tutorId": tutorID}
	if err := c.query(ctx, classAndTutorQuery, vars, &data); err != nil {
		return nil, err
	}

	if data.Class == nil || data.Tutor == nil {
		return nil, errors.NewGatewayNotFoundError(fmt.Sprintf("class %s or tutor %s", classID, tutorID))
	}

	return &models.ClassWithTutor{
		Class: *data.Class,
		Tutor: *data.Tutor,
	}, nil
}

// query posts one GraphQL document and decodes the data section into
// out. Transport failures and non-2xx statuses surface as unavailable;
// GraphQL-level errors surface as not found since the gateway reports
// missing records that way.
func (c *Client) query(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return errors.NewGatewayUnavailableError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return errors.NewGatewayUnavailableError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewGatewayUnavailableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return errors.NewGatewayUnavailableError(
			fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(payload)))
	}

	var gqlResp graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		return errors.NewGatewayUnavailableError(fmt.Errorf("failed to decode gateway response: %w", err))
	}

	if len(gqlResp.Errors) > 0 {
		c.logger.Warn("Gateway query returned errors", map[string]interface{}{
			"error": gqlResp.Errors[0].Message,
		})
		return errors.NewGatewayNotFoundError(gqlResp.Errors[0].Message)
	}

	if err := json.Unmarshal(gqlResp.Data, out); err != nil {
		return errors.NewGatewayUnavailableError(fmt.Errorf("failed to decode gateway data: %w", err))
	}

	return nil
}
