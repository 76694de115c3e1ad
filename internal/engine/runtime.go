package engine

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

// ContainerSpec describes one container to create, already fully resolved
// (variables substituted, names sanitized) by the planner.
type ContainerSpec struct {
	Name     string
	Image    string
	Env      map[string]string
	Ports    []string
	Volumes  []string
	Networks []string
	Command  []string
	Labels   map[string]string
}

// ContainerSummary is the subset of container metadata the engine needs
// for inventory and removal.
type ContainerSummary struct {
	ID   string
	Name string
}

// Runtime is the container-runtime contract the engine drives, widened
// with the network and label-query operations the two-phase engine
// needs beyond basic image/container lifecycle management.
type Runtime interface {
	ImageExistsLocally(ctx context.Context, ref string) (bool, error)
	PullImage(ctx context.Context, ref string, auth RegistryAuth) error
	EnsureNetwork(ctx context.Context, name string) error
	NetworkIsEmpty(ctx context.Context, name string) (bool, error)
	RemoveNetwork(ctx context.Context, name string) error
	RemoveContainerIfExists(ctx context.Context, name string) error
	CreateAndStart(ctx context.Context, spec ContainerSpec) (containerID string, err error)
	WaitForExit(ctx context.Context, containerID string) (exitCode int, err error)
	RemoveContainer(ctx context.Context, containerID string, force bool) error
	ListByLabel(ctx context.Context, key, value string) ([]ContainerSummary, error)
}

// RegistryAuth is the resolved credential pair for one pull, or a zero
// value when the image's registry has no configured credentials.
type RegistryAuth struct {
	Username string
	Password string
}

func (a RegistryAuth) empty() bool { return a.Username == "" && a.Password == "" }

// encode renders the Docker wire format for X-Registry-Auth: base64 of the
// JSON-encoded AuthConfig.
func (a RegistryAuth) encode() (string, error) {
	if a.empty() {
		return "", nil
	}
	buf, err := json.Marshal(registry.AuthConfig{Username: a.Username, Password: a.Password})
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}

// DockerRuntime implements Runtime against a real Docker daemon via the
// Docker Go SDK.
type DockerRuntime struct {
	cli *client.Client
}

// NewDockerRuntime dials the daemon using the standard DOCKER_HOST /
// DOCKER_CERT_PATH environment, negotiating the API version.
func NewDockerRuntime() (*DockerRuntime, error) {
	return NewDockerRuntimeWithHost("")
}

// NewDockerRuntimeWithHost dials the daemon at host, or falls back to the
// standard DOCKER_HOST / DOCKER_CERT_PATH environment when host is empty
// (config.RsgoConfig.DockerHost feeds this).
func NewDockerRuntimeWithHost(host string) (*DockerRuntime, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to docker daemon: %w", err)
	}
	return &DockerRuntime{cli: cli}, nil
}

func (d *DockerRuntime) ImageExistsLocally(ctx context.Context, ref string) (bool, error) {
	_, _, err := d.cli.ImageInspectWithRaw(ctx, ref)
	if err == nil {
		return true, nil
	}
	if client.IsErrNotFound(err) {
		return false, nil
	}
	return false, err
}

func (d *DockerRuntime) PullImage(ctx context.Context, ref string, auth RegistryAuth) error {
	authStr, err := auth.encode()
	if err != nil {
		return err
	}
	rc, err := d.cli.ImagePull(ctx, ref, image.PullOptions{RegistryAuth: authStr})
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(io.Discard, rc)
	return err
}

func (d *DockerRuntime) EnsureNetwork(ctx context.Context, name string) error {
	_, err := d.cli.NetworkInspect(ctx, name, network.InspectOptions{})
	if err == nil {
		return nil
	}
	if !client.IsErrNotFound(err) {
		return err
	}
	_, err = d.cli.NetworkCreate(ctx, name, network.CreateOptions{})
	return err
}

func (d *DockerRuntime) NetworkIsEmpty(ctx context.Context, name string) (bool, error) {
	info, err := d.cli.NetworkInspect(ctx, name, network.InspectOptions{})
	if err != nil {
		if client.IsErrNotFound(err) {
			return true, nil
		}
		return false, err
	}
	return len(info.Containers) == 0, nil
}

func (d *DockerRuntime) RemoveNetwork(ctx context.Context, name string) error {
	err := d.cli.NetworkRemove(ctx, name)
	if err != nil && client.IsErrNotFound(err) {
		return nil
	}
	return err
}

func (d *DockerRuntime) RemoveContainerIfExists(ctx context.Context, name string) error {
	err := d.cli.ContainerRemove(ctx, name, container.RemoveOptions{Force: true})
	if err != nil && client.IsErrNotFound(err) {
		return nil
	}
	return err
}

func (d *DockerRuntime) CreateAndStart(ctx context.Context, spec ContainerSpec) (string, error) {
	env := make([]string, 0, len(spec.Env))
	for k, v := range spec.Env {
		env = append(env, k+"="+v)
	}

	exposed, bindings, err := nat.ParsePortSpecs(spec.Ports)
	if err != nil {
		return "", fmt.Errorf("parse port spec: %w", err)
	}

	binds := make([]string, 0, len(spec.Volumes))
	binds = append(binds, spec.Volumes...)

	resp, err := d.cli.ContainerCreate(ctx,
		&container.Config{
			Image:        spec.Image,
			Env:          env,
			Cmd:          spec.Command,
			Labels:       spec.Labels,
			ExposedPorts: exposed,
		},
		&container.HostConfig{
			PortBindings: bindings,
			Binds:        binds,
		},
		buildNetworkingConfig(spec.Networks),
		nil,
		spec.Name,
	)
	if err != nil {
		return "", err
	}

	if err := d.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return resp.ID, err
	}
	return resp.ID, nil
}

func buildNetworkingConfig(networks []string) *network.NetworkingConfig {
	if len(networks) == 0 {
		return nil
	}
	endpoints := make(map[string]*network.EndpointSettings, len(networks))
	for _, n := range networks {
		endpoints[n] = &network.EndpointSettings{}
	}
	return &network.NetworkingConfig{EndpointsConfig: endpoints}
}

func (d *DockerRuntime) WaitForExit(ctx context.Context, containerID string) (int, error) {
	statusCh, errCh := d.cli.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return -1, err
	case status := <-statusCh:
		return int(status.StatusCode), nil
	}
}

func (d *DockerRuntime) RemoveContainer(ctx context.Context, containerID string, force bool) error {
	err := d.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: force})
	if err != nil && client.IsErrNotFound(err) {
		return nil
	}
	return err
}

func (d *DockerRuntime) ListByLabel(ctx context.Context, key, value string) ([]ContainerSummary, error) {
	args := filters.NewArgs(filters.Arg("label", key+"="+value))
	list, err := d.cli.ContainerList(ctx, container.ListOptions{All: true, Filters: args})
	if err != nil {
		return nil, err
	}
	out := make([]ContainerSummary, 0, len(list))
	for _, c := range list {
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		out = append(out, ContainerSummary{ID: c.ID, Name: name})
	}
	return out, nil
}
