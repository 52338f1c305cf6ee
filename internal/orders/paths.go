package orders

import (
	"github.com/luisarreguin/delifast-backend/pkg/docstore"
	"github.com/luisarreguin/delifast-backend/pkg/enums"
)

// Document tree layout. Orders live under a primary collection with a nested
// history log; three secondary indexes map user, local and status to order
// ids.
const (
	CollectionOrders   = "ordersDelivery"
	CollectionByUser   = "ordersDeliveryByUser"
	CollectionByLocal  = "ordersDeliveryByLocal"
	CollectionByStatus = "ordersDeliveryByStatus"
	historySegment     = "history"
)

func orderPath(orderID string) string {
	return docstore.Join(CollectionOrders, orderID)
}

func historyPath(orderID, entryID string) string {
	return docstore.Join(CollectionOrders, orderID, historySegment, entryID)
}

func historyPrefix(orderID string) string {
	return docstore.Join(CollectionOrders, orderID, historySegment) + "/"
}

func byUserPath(userID, orderID string) string {
	return docstore.Join(CollectionByUser, userID, orderID)
}

func byUserPrefix(userID string) string {
	return docstore.Join(CollectionByUser, userID) + "/"
}

func byLocalPath(localID, orderID string) string {
	return docstore.Join(CollectionByLocal, localID, orderID)
}

func byLocalPrefix(localID string) string {
	return docstore.Join(CollectionByLocal, localID) + "/"
}

func byStatusPath(status enums.OrderStatus, orderID string) string {
	return docstore.Join(CollectionByStatus, status.String(), orderID)
}

func byStatusPrefix(status enums.OrderStatus) string {
	return docstore.Join(CollectionByStatus, status.String()) + "/"
}
