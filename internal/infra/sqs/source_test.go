package sqs

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAPI struct{ mock.Mock }

func (m *mockAPI) ReceiveMessage(ctx context.Context, in *awssqs.ReceiveMessageInput, _ ...func(*awssqs.Options)) (*awssqs.ReceiveMessageOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*awssqs.ReceiveMessageOutput)
	return out, args.Error(1)
}

func (m *mockAPI) DeleteMessage(ctx context.Context, in *awssqs.DeleteMessageInput, _ ...func(*awssqs.Options)) (*awssqs.DeleteMessageOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*awssqs.DeleteMessageOutput)
	return out, args.Error(1)
}

var testCfg = SourceConfig{
	QueueURL:          "https://sqs.us-east-1.amazonaws.com/123/videos",
	MaxMessages:       10,
	VisibilityTimeout: 20,
}

func TestReceiveMapsMessages(t *testing.T) {
	api := new(mockAPI)
	api.On("ReceiveMessage", mock.Anything, mock.MatchedBy(func(in *awssqs.ReceiveMessageInput) bool {
		return aws.ToString(in.QueueUrl) == testCfg.QueueURL &&
			in.MaxNumberOfMessages == 10 &&
			in.VisibilityTimeout == 20 &&
			in.WaitTimeSeconds == 0
	})).Return(&awssqs.ReceiveMessageOutput{Messages: []types.Message{
		{MessageId: aws.String("m-1"), ReceiptHandle: aws.String("r-1"), Body: aws.String(`{"userId":"u1"}`)},
		{MessageId: aws.String("m-2"), ReceiptHandle: aws.String("r-2")},
	}}, nil)

	msgs, err := NewSource(api, testCfg, zap.NewNop()).Receive(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, "m-1", msgs[0].ID)
	assert.Equal(t, "r-1", msgs[0].ReceiptToken)
	assert.Equal(t, `{"userId":"u1"}`, string(msgs[0].Body))
	assert.Empty(t, msgs[1].Body)
	api.AssertExpectations(t)
}

func TestReceiveEmptyQueue(t *testing.T) {
	api := new(mockAPI)
	api.On("ReceiveMessage", mock.Anything, mock.Anything).Return(&awssqs.ReceiveMessageOutput{}, nil)

	msgs, err := NewSource(api, testCfg, zap.NewNop()).Receive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestReceiveWrapsErrors(t *testing.T) {
	api := new(mockAPI)
	api.On("ReceiveMessage", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	_, err := NewSource(api, testCfg, zap.NewNop()).Receive(context.Background())
	assert.ErrorContains(t, err, "throttled")
}

func TestDeleteUsesReceiptHandle(t *testing.T) {
	api := new(mockAPI)
	api.On("DeleteMessage", mock.Anything, mock.MatchedBy(func(in *awssqs.DeleteMessageInput) bool {
		return aws.ToString(in.ReceiptHandle) == "r-1" && aws.ToString(in.QueueUrl) == testCfg.QueueURL
	})).Return(&awssqs.DeleteMessageOutput{}, nil)

	require.NoError(t, NewSource(api, testCfg, zap.NewNop()).Delete(context.Background(), "m-1", "r-1"))
	api.AssertExpectations(t)
}

func TestDeleteWrapsErrors(t *testing.T) {
	api := new(mockAPI)
	api.On("DeleteMessage", mock.Anything, mock.Anything).Return(nil, errors.New("receipt expired"))

	err := NewSource(api, testCfg, zap.NewNop()).Delete(context.Background(), "m-1", "r-1")
	assert.ErrorContains(t, err, "m-1")
}
