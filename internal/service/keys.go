package service

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Efimish/whisper-backend/internal/util"
)

const (
	privateKeyFile = "private.pem"
	publicKeyFile  = "public.pem"
	rsaKeyBits     = 2048
)

// KeyPair holds the process-wide RSA signing keys. It is loaded once at
// startup and shared read-only for the process lifetime.
type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// LoadKeys reads the key pair from cfg.Dir, generating and persisting a
// fresh one when either file is missing. The directory itself must
// already exist; any failure here must abort startup, the server never
// runs without verifiable signing keys.
func LoadKeys(cfg *util.KeysConfig, log *zap.SugaredLogger) (*KeyPair, error) {
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("keys directory %q: %w", cfg.Dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("keys path %q is not a directory", cfg.Dir)
	}

	privatePath := filepath.Join(cfg.Dir, privateKeyFile)
	publicPath := filepath.Join(cfg.Dir, publicKeyFile)

	if !fileExists(privatePath) || !fileExists(publicPath) {
		log.Warnw("Signing keys not found, generating new key pair", "dir", cfg.Dir)
		if err := generateKeyPair(privatePath, publicPath); err != nil {
			return nil, fmt.Errorf("generate key pair: %w", err)
		}
	}

	private, err := readPrivateKey(privatePath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	public, err := readPublicKey(publicPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}

	return &KeyPair{Private: private, Public: public}, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func generateKeyPair(privatePath, publicPath string) error {
	private, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return fmt.Errorf("generate rsa key: %w", err)
	}

	privateDER, err := x509.MarshalPKCS8PrivateKey(private)
	if err != nil {
		return fmt.Errorf("marshal private key: %w", err)
	}
	if err := writePEM(privatePath, "PRIVATE KEY", privateDER, 0o600); err != nil {
		return err
	}

	publicDER, err := x509.MarshalPKIXPublicKey(&private.PublicKey)
	if err != nil {
		return fmt.Errorf("marshal public key: %w", err)
	}
	return writePEM(publicPath, "PUBLIC KEY", publicDER, 0o644)
}

func writePEM(path, blockType string, der []byte, perm os.FileMode) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	if err := pem.Encode(file, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

func readPrivateKey(path string) (*rsa.PrivateKey, error) {
	block, err := readPEMBlock(path)
	if err != nil {
		return nil, err
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse pkcs8: %w", err)
	}
	private, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return private, nil
}

func readPublicKey(path string) (*rsa.PublicKey, error) {
	block, err := readPEMBlock(path)
	if err != nil {
		return nil, err
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse pkix: %w", err)
	}
	public, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not RSA")
	}
	return public, nil
}

func readPEMBlock(path string) (*pem.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%s: no PEM block found", path)
	}
	return block, nil
}
