package risk

import (
	"encoding/gob"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Artifact pairs a fitted model with the scaler that standardized its
// training features. Artifacts are written once by a training run and
// loaded read-only by inference runs.
type Artifact struct {
	Method   Method
	Features []string
	Scaler   *Scaler
	GMM      *GMM    // set when Method == gmm
	LogReg   *LogReg // set when Method == logreg
}

// Metadata is the JSON sidecar written next to the model blobs.
type Metadata struct {
	FeaturesUsed   []string `json:"features_used"`
	LogregAUC      float64  `json:"logreg_auc"`
	LogregAccuracy float64  `json:"logreg_accuracy"`
}

// Artifact file names inside the model directory.
const (
	GMMArtifactFile    = "risk_model_gmm.gob"
	LogRegArtifactFile = "risk_model_logreg.gob"
	MetadataFile       = "risk_model_metadata.json"
	ClusterMapFile     = "gmm_cluster_map.json"
)

// SaveArtifact gob-encodes an artifact to path.
func SaveArtifact(art *Artifact, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "risk: create artifact %s", path)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(art); err != nil {
		return eris.Wrapf(err, "risk: encode artifact %s", path)
	}
	zap.L().Info("risk: saved artifact",
		zap.String("method", string(art.Method)),
		zap.String("path", path),
	)
	return nil
}

// LoadArtifact reads a gob-encoded artifact from path.
func LoadArtifact(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "risk: open artifact %s", path)
	}
	defer f.Close()
	var art Artifact
	if err := gob.NewDecoder(f).Decode(&art); err != nil {
		return nil, eris.Wrapf(err, "risk: decode artifact %s", path)
	}
	return &art, nil
}

// SaveMetadata writes the JSON sidecar.
func SaveMetadata(meta Metadata, path string) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return eris.Wrap(err, "risk: marshal metadata")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "risk: write metadata %s", path)
	}
	return nil
}

// LoadMetadata reads the JSON sidecar.
func LoadMetadata(path string) (Metadata, error) {
	var meta Metadata
	data, err := os.ReadFile(path)
	if err != nil {
		return meta, eris.Wrapf(err, "risk: read metadata %s", path)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, eris.Wrapf(err, "risk: parse metadata %s", path)
	}
	return meta, nil
}

// SaveClusterMap writes the cluster map as JSON with string keys.
func SaveClusterMap(cm ClusterMap, path string) error {
	enc := make(map[string]float64, len(cm))
	for c, p := range cm {
		enc[strconv.Itoa(c)] = p
	}
	data, err := json.MarshalIndent(enc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "risk: marshal cluster map")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "risk: write cluster map %s", path)
	}
	return nil
}

// LoadClusterMap reads a cluster map JSON. Keys may be produced by
// this tool (string ints) or edited by hand; non-integer keys are an
// error.
func LoadClusterMap(path string) (ClusterMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "risk: read cluster map %s", path)
	}
	var enc map[string]float64
	if err := json.Unmarshal(data, &enc); err != nil {
		return nil, eris.Wrapf(err, "risk: parse cluster map %s", path)
	}
	cm := make(ClusterMap, len(enc))
	for k, p := range enc {
		c, err := strconv.Atoi(k)
		if err != nil {
			return nil, eris.Errorf("risk: cluster map key %q is not an integer", k)
		}
		cm[c] = p
	}
	return cm, nil
}

// ArtifactPath joins the model directory with a known artifact file.
func ArtifactPath(dir, file string) string {
	return filepath.Join(dir, file)
}
