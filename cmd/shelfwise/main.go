// Copyright 2026 shelfwise Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shelfwise-io/shelfwise/base/log"
	"github.com/shelfwise-io/shelfwise/config"
	"github.com/shelfwise-io/shelfwise/content"
	"github.com/shelfwise-io/shelfwise/dataset"
	"github.com/shelfwise-io/shelfwise/logics"
	"github.com/shelfwise-io/shelfwise/model"
	"github.com/shelfwise-io/shelfwise/model/ncf"
)

var rootCmd = &cobra.Command{
	Use:   "shelfwise",
	Short: "Hybrid book recommender",
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		debug, _ := cmd.PersistentFlags().GetBool("debug")
		log.SetLogger(cmd.PersistentFlags(), debug)
	},
}

var trainCmd = &cobra.Command{
	Use:   "train [ratings-file] [documents-file] [output-file]",
	Short: "Train artifacts from cleaned interaction and document records",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		data, err := loadDataset(args[0], args[1])
		if err != nil {
			log.Logger().Fatal("load dataset", zap.Error(err))
		}
		trainSet, validSet := data.SampleImplicit(dataset.SamplerConfig{
			PositiveThreshold:   cfg.Feedback.PositiveThreshold,
			NegativeRatio:       cfg.Feedback.NegativeRatio,
			MaxResampleAttempts: cfg.Feedback.MaxResampleAttempts,
			RandomSeed:          cfg.Feedback.RandomSeed,
		})
		scorer := ncf.NewNeuMF(model.Params{
			model.Lr:           cfg.Scorer.Lr,
			model.Reg:          cfg.Scorer.Reg,
			model.NEpochs:      cfg.Scorer.Epochs,
			model.BatchSize:    cfg.Scorer.BatchSize,
			model.DGMF:         cfg.Scorer.DGMF,
			model.DMLP:         cfg.Scorer.DMLP,
			model.HiddenLayers: cfg.Scorer.MLPLayerWidths,
			model.InitStdDev:   cfg.Scorer.InitStdDev,
			model.RandomState:  cfg.Feedback.RandomSeed,
		})
		fitConfig := ncf.NewFitConfig().
			SetJobs(cfg.Scorer.FitJobs).
			SetVerbose(cfg.Scorer.Verbose)
		if _, err := scorer.Fit(context.Background(), trainSet, validSet, fitConfig); err != nil {
			log.Logger().Fatal("fit scorer", zap.Error(err))
		}
		docs := make([]content.Document, 0, data.CountItems())
		for itemIndex := int32(0); int(itemIndex) < data.CountItems(); itemIndex++ {
			docs = append(docs, content.Document{ItemIndex: itemIndex, Text: data.GetDocument(itemIndex)})
		}
		index, err := content.Build(context.Background(), data.CountItems(), docs, runtime.NumCPU())
		if err != nil {
			log.Logger().Fatal("build content index", zap.Error(err))
		}
		if err := dumpArtifacts(args[2], data, scorer, index); err != nil {
			log.Logger().Fatal("dump artifacts", zap.Error(err))
		}
	},
}

var queryCmd = &cobra.Command{
	Use:   "query [artifacts-file] [user-id]",
	Short: "Answer a top-K query from trained artifacts",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		artifacts, err := loadArtifacts(args[0], cfg)
		if err != nil {
			log.Logger().Fatal("load artifacts", zap.Error(err))
		}
		recommender := logics.NewRecommender(logics.Weights{
			NCF: cfg.Ranker.WeightNCF,
			CBF: cfg.Ranker.WeightCBF,
		})
		recommender.Swap(artifacts)
		results, err := recommender.Recommend(args[1], cfg.Ranker.TopK)
		if err != nil {
			log.Logger().Fatal("recommend", zap.Error(err))
		}
		for _, result := range results {
			fmt.Printf("%s\t%f\n", result.ItemId, result.Score)
		}
	},
}

func loadConfig(cmd *cobra.Command) *config.Config {
	if cmd.Flags().Changed("config") {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadConfig(path)
		if err != nil {
			log.Logger().Fatal("load config", zap.Error(err))
		}
		return cfg
	}
	return config.LoadDefault()
}

// loadDataset reads cleaned tab separated records: "user\titem\trating" and
// "item\ttext".
func loadDataset(ratingsPath, documentsPath string) (*dataset.Dataset, error) {
	data := dataset.NewDataset()
	if err := forEachLine(ratingsPath, func(fields []string) error {
		if len(fields) != 3 {
			return fmt.Errorf("malformed rating record: %v", fields)
		}
		rating, err := strconv.Atoi(fields[2])
		if err != nil {
			return err
		}
		data.AddInteraction(fields[0], fields[1], rating)
		return nil
	}); err != nil {
		return nil, err
	}
	if err := forEachLine(documentsPath, func(fields []string) error {
		if len(fields) != 2 {
			return fmt.Errorf("malformed document record: %v", fields)
		}
		data.AddDocument(fields[0], fields[1])
		return nil
	}); err != nil {
		return nil, err
	}
	data.Freeze()
	return data, nil
}

func forEachLine(path string, fn func(fields []string) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := fn(strings.Split(line, "\t")); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func dumpArtifacts(path string, data *dataset.Dataset, scorer *ncf.NeuMF, index *content.Index) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	writer := bufio.NewWriter(file)
	if err := data.Marshal(writer); err != nil {
		return err
	}
	if err := scorer.Marshal(writer); err != nil {
		return err
	}
	if err := index.Marshal(writer); err != nil {
		return err
	}
	return writer.Flush()
}

func loadArtifacts(path string, cfg *config.Config) (*logics.Artifacts, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	reader := bufio.NewReader(file)
	data := dataset.NewDataset()
	if err := data.Unmarshal(reader); err != nil {
		return nil, err
	}
	scorer := new(ncf.NeuMF)
	if err := scorer.Unmarshal(reader); err != nil {
		return nil, err
	}
	index := new(content.Index)
	if err := index.Unmarshal(reader); err != nil {
		return nil, err
	}
	return &logics.Artifacts{
		Snapshot:          data,
		Scorer:            scorer,
		Content:           index,
		PositiveThreshold: cfg.Feedback.PositiveThreshold,
	}, nil
}

func main() {
	rootCmd.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCmd.PersistentFlags().String("config", "", "path of configuration file")
	log.AddFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(trainCmd, queryCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Logger().Fatal("failed to execute command", zap.Error(err))
	}
}
