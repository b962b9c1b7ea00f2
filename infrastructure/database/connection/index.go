package connection

import (
	"prism.io/infrastructure/database/connection/cache"
	"prism.io/infrastructure/database/connection/datastore"
)

func ConnectToDatabase() {
	datastore.ConnectToDatabase()
	cache.ConnectToCache()
}
