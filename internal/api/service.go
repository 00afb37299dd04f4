package api

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "sharedtodo.v1.SharedList"

// Method names of the SharedList service.
const (
	MethodPing             = "Ping"
	MethodAddItem          = "AddItem"
	MethodGetItem          = "GetItem"
	MethodListItems        = "ListItems"
	MethodToggleCompletion = "ToggleCompletion"
	MethodToggleDeletion   = "ToggleDeletion"
	MethodEditItem         = "EditItem"
	MethodYearGrid         = "YearGrid"
	MethodScanAndReset     = "ScanAndReset"
	MethodExportHistory    = "ExportHistory"
	MethodSubscribe        = "Subscribe"
)

// FullMethod returns the "/service/method" path of method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}
