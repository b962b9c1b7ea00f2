package startup

import (
	"prism.io/infrastructure/database"
	"prism.io/infrastructure/database/connection/datastore"
	"prism.io/infrastructure/liveness"
	"prism.io/infrastructure/logger"
)

// Used to start services such as loggers, databases, queues, etc.
func StartServices() {
	logger.InitializeLogger()
	database.SetUpDatabase()
	liveness.InitialiseLivenessService()
}

// Used to clean up after services that have been shutdown.
func CleanUpServices() {
	datastore.CleanUp()
}
