package repository

import (
	"sync"

	"prism.io/entities"
	"prism.io/infrastructure/database/connection/datastore"
	"prism.io/infrastructure/database/repository/mongo"
)

var verificationAttemptOnce = sync.Once{}

var verificationAttemptRepository mongo.MongoRepository[entities.VerificationAttempt]

func VerificationAttemptRepo() *mongo.MongoRepository[entities.VerificationAttempt] {
	verificationAttemptOnce.Do(func() {
		verificationAttemptRepository = mongo.MongoRepository[entities.VerificationAttempt]{Model: datastore.VerificationAttemptModel}
	})
	return &verificationAttemptRepository
}
