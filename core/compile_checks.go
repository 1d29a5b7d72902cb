package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ CustodyService  = (*Service)(nil)
	_ ClientGateway   = (*StaticClientGateway)(nil)
	_ SnapshotStore   = (*MemorySnapshotStore)(nil)
	_ AccountLocker   = (*MemoryAccountLocker)(nil)
	_ RawConfigLoader = EnvConfigLoader{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
