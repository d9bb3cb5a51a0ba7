package crm

var Command = "crm"

var ResourceCommand = "crm_resource"

var VersionArgs = []string{"--version"}

var ShowXMLArgs = []string{"configure", "show", "xml"}

var NodeStatusArgs = []string{"node", "status"}

var NodeListArgs = []string{"node", "list"}

var GetPropertyArgs = func(name string) []string {
	return []string{"configure", "get-property", name}
}

var ShowPropertyArgs = func(name string) []string {
	return []string{"configure", "show-property", name}
}

var SetPropertyArgs = func(name, value string) []string {
	return []string{"configure", "property", name + "=" + value}
}

var ResourceStatusArgs = func(resource string) []string {
	return []string{"resource", "status", resource}
}

var CleanupArgs = func(resource string) []string {
	return []string{"resource", "cleanup", resource}
}

var LoadUpdateArgs = func(path string) []string {
	return []string{"configure", "load", "update", path}
}

var DeleteNodeArgs = func(hostname string) []string {
	return []string{"-w", "-F", "node", "delete", hostname}
}

var GetMetaArgs = func(resource, key string) []string {
	return []string{"--resource", resource, "--get-parameter", key, "--meta"}
}

var SetMetaArgs = func(resource, key, value string) []string {
	return []string{"--resource", resource, "--set-parameter", key, "--meta", "--parameter-value", value}
}

var GetParamArgs = func(resource, key string) []string {
	return []string{"--resource", resource, "--get-parameter", key}
}
