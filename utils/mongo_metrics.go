package utils

import (
	"go.mongodb.org/mongo-driver/event"
)

// NewPoolMonitor feeds driver pool events into the mongo_pool_connections gauge.
func NewPoolMonitor() *event.PoolMonitor {
	open := MongoPoolConnections.WithLabelValues("open")
	checkedOut := MongoPoolConnections.WithLabelValues("checked_out")

	return &event.PoolMonitor{
		Event: func(evt *event.PoolEvent) {
			switch evt.Type {
			case event.ConnectionCreated:
				open.Inc()
			case event.ConnectionClosed:
				open.Dec()
			case event.GetSucceeded:
				checkedOut.Inc()
			case event.ConnectionReturned:
				checkedOut.Dec()
			}
		},
	}
}
