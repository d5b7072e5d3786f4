package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	metricsv "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/podaudit/podaudit/internal/adapters/outbound/k8s"
	"github.com/podaudit/podaudit/internal/config"
	"github.com/podaudit/podaudit/internal/infra/logging"
	"github.com/podaudit/podaudit/internal/logic/probes"
	"github.com/podaudit/podaudit/internal/logic/resources"
	"github.com/podaudit/podaudit/internal/logic/rootfs"
	"github.com/podaudit/podaudit/internal/output"
)

// rootOptions carries the persistent flag values shared by all audits.
// Defaults come from env config; flags override.
type rootOptions struct {
	kubeConfig   string
	kubeMaster   string
	logLevel     string
	logFormat    string
	outputFormat string

	namespaces    []string
	allNamespaces bool
}

func newRootCommand(cfg *config.Config) *cobra.Command {
	opts := &rootOptions{
		kubeConfig:   cfg.KubeConfig,
		kubeMaster:   cfg.KubeMaster,
		logLevel:     cfg.LogLevel,
		logFormat:    cfg.LogFormat,
		outputFormat: cfg.Output,
	}

	cmd := &cobra.Command{
		Use:           "podaudit",
		Short:         "Audit Kubernetes workloads for resource misconfiguration",
		Long:          "podaudit runs point-in-time audits against a cluster: containers whose measured usage diverges from their declared requests and limits, pods without health probes, and containers without a read-only root filesystem.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.allNamespaces && len(opts.namespaces) > 0 {
				return errors.New("--namespaces and --all-namespaces are mutually exclusive")
			}

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.kubeConfig, "kubeconfig", opts.kubeConfig, "Path to the kubeconfig file to use for API requests")
	cmd.PersistentFlags().StringVar(&opts.kubeMaster, "kube-master", opts.kubeMaster, "URL of the Kubernetes API server (overrides kubeconfig)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", opts.logFormat, "Log format (json, text)")
	cmd.PersistentFlags().StringVarP(&opts.outputFormat, "output", "o", opts.outputFormat, "Report format (json, yaml)")
	cmd.PersistentFlags().StringSliceVar(&opts.namespaces, "namespaces", nil, "Audit the given namespaces; defaults to the kubeconfig context namespace")
	cmd.PersistentFlags().BoolVar(&opts.allNamespaces, "all-namespaces", false, "Audit all namespaces")

	cmd.AddCommand(
		newResourceRequestsCommand(opts),
		newMissingHealthProbesCommand(opts),
		newReadOnlyRootFilesystemCommand(opts),
	)

	return cmd
}

// auditEnv is everything a subcommand needs to run: the logger, the adapter
// behind the three ports, and the resolved namespace scope.
type auditEnv struct {
	logger        *slog.Logger
	source        k8s.Source
	namespaces    []string
	allNamespaces bool
}

// environment wires logger, clientsets and adapter, and resolves the
// namespace scope. An empty --namespaces without --all-namespaces audits the
// namespace of the current kubeconfig context.
func (o *rootOptions) environment() (*auditEnv, error) {
	logger := logging.New(o.logFormat, o.logLevel)

	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if o.kubeConfig != "" {
		loadingRules.ExplicitPath = o.kubeConfig
	}

	overrides := &clientcmd.ConfigOverrides{}
	if o.kubeMaster != "" {
		overrides.ClusterInfo.Server = o.kubeMaster
	}

	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides)

	restConfig, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("build k8s config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("create clientset: %w", err)
	}

	metricsClientset, err := metricsv.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("create metrics clientset: %w", err)
	}

	env := &auditEnv{
		logger:        logger,
		source:        k8s.New(logger, clientset, metricsClientset),
		namespaces:    o.namespaces,
		allNamespaces: o.allNamespaces,
	}

	if !env.allNamespaces && len(env.namespaces) == 0 {
		namespace, _, err := clientConfig.Namespace()
		if err != nil {
			return nil, fmt.Errorf("resolve current namespace: %w", err)
		}

		env.namespaces = []string{namespace}
	}

	return env, nil
}

func newResourceRequestsCommand(opts *rootOptions) *cobra.Command {
	var (
		threshold            uint64
		skipUnderUtilization bool
	)

	cmd := &cobra.Command{
		Use:   "resource-requests",
		Short: "Compare measured container usage against declared requests and limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.environment()
			if err != nil {
				return err
			}

			runOpts := resources.Options{
				Namespaces:           env.namespaces,
				AllNamespaces:        env.allNamespaces,
				SkipUnderUtilization: skipUnderUtilization,
			}

			if cmd.Flags().Changed("threshold") {
				t := resources.Cpu(threshold)
				runOpts.Threshold = &t
			}

			service := resources.New(env.logger, env.source, env.source, env.source)

			report, err := service.RunQuery(cmd.Context(), runOpts)
			if err != nil {
				return err
			}

			return output.Write(os.Stdout, opts.outputFormat, report)
		},
	}

	cmd.Flags().Uint64Var(&threshold, "threshold", 0, "CPU headroom in millicores above which under-utilization is reported; unset reports every resource-bearing container")
	cmd.Flags().BoolVar(&skipUnderUtilization, "skip-under-utilization", false, "Do not report containers using significantly less CPU than requested")

	return cmd
}

func newMissingHealthProbesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "missing-health-probes",
		Short: "List running pods without liveness or readiness probes",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.environment()
			if err != nil {
				return err
			}

			service := probes.New(env.logger, env.source)

			findings, err := service.RunQuery(cmd.Context(), env.namespaces, env.allNamespaces)
			if err != nil {
				return err
			}

			return output.Write(os.Stdout, opts.outputFormat, findings)
		},
	}
}

func newReadOnlyRootFilesystemCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "readonly-root-filesystem",
		Short: "List containers whose root filesystem is writable",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.environment()
			if err != nil {
				return err
			}

			service := rootfs.New(env.logger, env.source)

			findings, err := service.RunQuery(cmd.Context(), env.namespaces, env.allNamespaces)
			if err != nil {
				return err
			}

			return output.Write(os.Stdout, opts.outputFormat, findings)
		},
	}
}
