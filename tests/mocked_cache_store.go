package tests

import (
	"errors"
	"time"

	"github.com/talentwire/points-service/utils"
)

var errMiss = errors.New("cache miss")

type MockCacheStore struct {
	Values         map[string]string
	LastKey        string
	SetCount       int
	GetCount       int
	DeleteCount    int
	FailingGet     bool
	ReturnedResult utils.Result[bool]
}

func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		Values:         make(map[string]string),
		ReturnedResult: utils.SuccessResult(true),
	}
}

func (mcs *MockCacheStore) GetKey(key string) utils.Result[string] {
	mcs.LastKey = key
	mcs.GetCount++

	if mcs.FailingGet {
		return utils.FailedResult[string](errMiss).NonCapturable().NonRetryable()
	}

	value, ok := mcs.Values[key]
	if !ok {
		return utils.FailedResult[string](errMiss).NonCapturable().NonRetryable()
	}

	return utils.SuccessResult(value)
}

func (mcs *MockCacheStore) SetKey(key string, value string, ttl time.Duration) utils.Result[bool] {
	mcs.LastKey = key
	mcs.SetCount++
	mcs.Values[key] = value

	return mcs.ReturnedResult
}

func (mcs *MockCacheStore) DeleteKey(key string) utils.Result[bool] {
	mcs.LastKey = key
	mcs.DeleteCount++
	delete(mcs.Values, key)

	return mcs.ReturnedResult
}

func (mcs *MockCacheStore) Close() error {
	return nil
}
