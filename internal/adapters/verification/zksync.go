package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
	"github.com/trebuchet-org/zkdeploy/internal/domain"
	"github.com/trebuchet-org/zkdeploy/internal/domain/config"
	"github.com/trebuchet-org/zkdeploy/internal/domain/models"
	"github.com/trebuchet-org/zkdeploy/internal/usecase"
)

const (
	codeFormatStandardJSON = "solidity-standard-json-input"

	defaultPollInterval = 3 * time.Second
	defaultMaxPolls     = 40
)

// ZkSyncVerifier submits contracts to the zkSync block explorer verification API
type ZkSyncVerifier struct {
	httpClient   *http.Client
	compilers    config.CompilersConfig
	pollInterval time.Duration
	maxPolls     int
	log          *slog.Logger
}

// NewZkSyncVerifier creates a verifier using the project's compiler settings
func NewZkSyncVerifier(cfg *config.RuntimeConfig, log *slog.Logger) *ZkSyncVerifier {
	var compilers config.CompilersConfig
	if cfg.ProjectConfig != nil {
		compilers = cfg.ProjectConfig.Compilers
	}
	return &ZkSyncVerifier{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		compilers:    compilers,
		pollInterval: defaultPollInterval,
		maxPolls:     defaultMaxPolls,
		log:          log,
	}
}

// WithPolling overrides the status polling cadence
func (v *ZkSyncVerifier) WithPolling(interval time.Duration, maxPolls int) *ZkSyncVerifier {
	v.pollInterval = interval
	v.maxPolls = maxPolls
	return v
}

// verificationRequest is the body of POST <verify_url>
type verificationRequest struct {
	ContractAddress       string          `json:"contractAddress"`
	ContractName          string          `json:"contractName"`
	SourceCode            json.RawMessage `json:"sourceCode"`
	CodeFormat            string          `json:"codeFormat"`
	CompilerZksolcVersion string          `json:"compilerZksolcVersion"`
	CompilerSolcVersion   string          `json:"compilerSolcVersion"`
	OptimizationUsed      bool            `json:"optimizationUsed"`
	ConstructorArguments  string          `json:"constructorArguments"`
}

// verificationStatus is the body of GET <verify_url>/<id>
type verificationStatus struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// buildInfo holds the fields of a Hardhat build-info file the API needs
type buildInfo struct {
	SolcVersion string          `json:"solcVersion"`
	Input       json.RawMessage `json:"input"`
}

// Verify submits one contract and waits for the explorer's verdict
func (v *ZkSyncVerifier) Verify(ctx context.Context, network *config.Network, req *models.VerificationRequest) (*models.VerificationResult, error) {
	if network.VerifyURL == "" {
		return nil, fmt.Errorf("%w: network %s has no verify_url", domain.ErrVerificationFailed, network.Name)
	}

	body, err := v.buildRequest(req)
	if err != nil {
		return nil, err
	}

	id, err := v.submit(ctx, network.VerifyURL, body)
	if err != nil {
		return nil, err
	}
	v.log.Info("verification submitted",
		slog.String("contract", req.Contract),
		slog.String("address", req.Address.Hex()),
		slog.String("id", id),
	)

	if err := v.waitForResult(ctx, network.VerifyURL, id); err != nil {
		return nil, err
	}

	result := &models.VerificationResult{
		Status: models.VerificationStatusVerified,
		ID:     id,
	}
	if network.ExplorerURL != "" {
		result.URL = fmt.Sprintf("%s/address/%s#contract", strings.TrimSuffix(network.ExplorerURL, "/"), req.Address.Hex())
	}
	return result, nil
}

func (v *ZkSyncVerifier) buildRequest(req *models.VerificationRequest) (*verificationRequest, error) {
	if req.Artifact == nil || req.Artifact.BuildInfoPath == "" {
		return nil, fmt.Errorf("%w: no build info for %s, compile with hardhat so artifacts carry .dbg.json files",
			domain.ErrVerificationFailed, req.Contract)
	}

	data, err := os.ReadFile(req.Artifact.BuildInfoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read build info: %w", err)
	}
	var info buildInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse build info %s: %w", req.Artifact.BuildInfoPath, err)
	}
	if len(info.Input) == 0 {
		return nil, fmt.Errorf("%w: build info %s has no compiler input", domain.ErrVerificationFailed, req.Artifact.BuildInfoPath)
	}

	solcVersion := info.SolcVersion
	if solcVersion == "" {
		solcVersion, _ = lo.Last(v.compilers.Solc)
	}
	zksolcVersion := v.compilers.Zksolc
	if zksolcVersion != "" && !strings.HasPrefix(zksolcVersion, "v") {
		zksolcVersion = "v" + zksolcVersion
	}

	return &verificationRequest{
		ContractAddress:       req.Address.Hex(),
		ContractName:          req.Contract,
		SourceCode:            info.Input,
		CodeFormat:            codeFormatStandardJSON,
		CompilerZksolcVersion: zksolcVersion,
		CompilerSolcVersion:   solcVersion,
		OptimizationUsed:      v.compilers.Optimizer,
		ConstructorArguments:  hexutil.Encode(req.ConstructorArgs),
	}, nil
}

// submit posts the request and returns the verification ID
func (v *ZkSyncVerifier) submit(ctx context.Context, verifyURL string, body *verificationRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode verification request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, verifyURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	respBody, err := v.do(httpReq)
	if err != nil {
		return "", err
	}

	// The API answers with a bare numeric ID, sometimes JSON encoded
	id := strings.Trim(strings.TrimSpace(string(respBody)), `"`)
	if id == "" {
		return "", fmt.Errorf("%w: empty verification ID", domain.ErrVerificationFailed)
	}
	return id, nil
}

// waitForResult polls until the request is successful or failed
func (v *ZkSyncVerifier) waitForResult(ctx context.Context, verifyURL, id string) error {
	statusURL := strings.TrimSuffix(verifyURL, "/") + "/" + id

	for attempt := 0; attempt < v.maxPolls; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		respBody, err := v.do(httpReq)
		if err != nil {
			return err
		}

		var status verificationStatus
		if err := json.Unmarshal(respBody, &status); err != nil {
			return fmt.Errorf("failed to parse verification status: %w", err)
		}

		switch status.Status {
		case "successful":
			return nil
		case "failed":
			return fmt.Errorf("%w: %s", domain.ErrVerificationFailed, status.Error)
		}

		v.log.Debug("verification pending", slog.String("id", id), slog.String("status", status.Status))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(v.pollInterval):
		}
	}

	return fmt.Errorf("%w: request %s still pending after %d checks", domain.ErrVerificationFailed, id, v.maxPolls)
}

func (v *ZkSyncVerifier) do(req *http.Request) ([]byte, error) {
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verification request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned %d: %s",
			domain.ErrVerificationFailed, req.URL, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// Ensure the verifier implements the interface
var _ usecase.ContractVerifier = (*ZkSyncVerifier)(nil)
