// Package registry announces the running service to a service catalog.
package registry

import (
	consulapi "github.com/hashicorp/consul/api"
)

// Instance describes one running copy of the service.
type Instance struct {
	ID      string // unique per instance, e.g. name-host-port
	Name    string // logical service name
	Address string
	Port    int
	Tags    []string
	Meta    map[string]string
	Checks  consulapi.AgentServiceChecks
}

// ServiceRegistry defines the interface for service registration.
type ServiceRegistry interface {
	Register(inst Instance) error
	// Deregister removes a service instance using its unique ID.
	Deregister(id string) error
}
