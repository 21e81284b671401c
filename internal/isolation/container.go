package isolation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/mount"
	"github.com/moby/moby/client"
)

// ContainerOpts configures the container isolation backend, used for
// multi-target runs where each target system ships its own image with the
// tracebench binary inside.
type ContainerOpts struct {
	Image   string
	Timeout time.Duration
}

// SpawnContainer runs the cohort worker inside a fresh container. The
// request/response pair rides through a bind-mounted exchange directory
// instead of stdin/stdout, since container attach semantics vary; the
// message-passing contract is the same as Spawn's.
func SpawnContainer(ctx context.Context, req Request, opts ContainerOpts) (*Response, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}
	defer cli.Close()

	exchDir, err := os.MkdirTemp("", "tracebench-cohort-")
	if err != nil {
		return nil, fmt.Errorf("creating exchange dir: %w", err)
	}
	defer os.RemoveAll(exchDir)

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding cohort request: %w", err)
	}
	if err := os.WriteFile(filepath.Join(exchDir, "request.json"), payload, 0o644); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}

	containerCfg := &container.Config{
		Image: opts.Image,
		Cmd: []string{
			"tracebench", CohortCommand,
			"--input", "/bench/request.json",
			"--output", "/bench/response.json",
		},
		Labels: map[string]string{"tracebench": "true"},
	}
	initTrue := true
	hostCfg := &container.HostConfig{
		Init: &initTrue,
		Mounts: []mount.Mount{
			{Type: mount.TypeBind, Source: exchDir, Target: "/bench"},
		},
	}

	createResp, err := cli.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config:     containerCfg,
		HostConfig: hostCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("creating container: %w", err)
	}
	containerID := createResp.ID
	defer func() {
		cli.ContainerRemove(context.Background(), containerID, client.ContainerRemoveOptions{Force: true})
	}()

	if _, err := cli.ContainerStart(ctx, containerID, client.ContainerStartOptions{}); err != nil {
		return nil, fmt.Errorf("starting container: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	waitResult := cli.ContainerWait(timeoutCtx, containerID, client.ContainerWaitOptions{
		Condition: container.WaitConditionNotRunning,
	})
	for {
		select {
		case err := <-waitResult.Error:
			if err != nil {
				cli.ContainerKill(context.Background(), containerID, client.ContainerKillOptions{Signal: "SIGKILL"})
				return nil, fmt.Errorf("cohort %s container timed out after %s; log tail: %s",
					req.Cohort, timeout, logTail(containerLog(cli, containerID), 512))
			}
		case status := <-waitResult.Result:
			log := containerLog(cli, containerID)
			if status.StatusCode != 0 {
				return nil, fmt.Errorf("cohort %s container exited %d; log tail: %s",
					req.Cohort, status.StatusCode, logTail(log, 512))
			}
			data, err := os.ReadFile(filepath.Join(exchDir, "response.json"))
			if err != nil {
				return nil, fmt.Errorf("cohort %s: reading response: %w", req.Cohort, err)
			}
			resp, err := DecodeResponse(data, req.Cohort)
			if err != nil {
				return nil, fmt.Errorf("cohort %s: %w", req.Cohort, err)
			}
			resp.Log = log
			return resp, nil
		}
	}
}

func containerLog(cli *client.Client, containerID string) string {
	reader, err := cli.ContainerLogs(context.Background(), containerID, client.ContainerLogsOptions{
		ShowStdout: true, ShowStderr: true, Tail: "100",
	})
	if err != nil || reader == nil {
		return ""
	}
	defer reader.Close()
	data, _ := io.ReadAll(reader)
	return string(data)
}
